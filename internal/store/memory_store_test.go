package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaforge/internal/model"
)

func newTestMemoryStore(start time.Time) (*MemoryStore, *time.Time) {
	now := start
	m := NewMemoryStore()
	m.Now = func() time.Time { return now }
	return m, &now
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	job, err := m.CreateJob(ctx, "user-1", model.KindGptImageGenerate, json.RawMessage(`{"prompt":"cat"}`))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.NotEqual(t, uuid.Nil, job.ID)

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prompt":"cat"}`, string(got.Input))

	_, err = m.GetJob(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStore_CreateCopiesUserID(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	// A string aliasing a reusable buffer, as request frameworks hand out.
	buf := []byte("alice-01")
	userID := unsafe.String(&buf[0], len(buf))

	job, err := m.CreateJob(ctx, userID, model.KindGptImageGenerate, nil)
	require.NoError(t, err)
	copy(buf, "mallory9")

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice-01", got.UserID)

	list, err := m.ListJobs(ctx, "alice-01", model.ListFilter{}, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore_UpdateRefusesTerminal(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	job, err := m.CreateJob(ctx, "user-1", model.KindSoraVideo, nil)
	require.NoError(t, err)

	_, err = m.UpdateJob(ctx, job.ID, model.JobUpdate{
		Status: model.StatusPtr(model.StatusFailed),
		Error:  model.StringPtr("boom"),
	})
	require.NoError(t, err)

	_, err = m.UpdateJob(ctx, job.ID, model.JobUpdate{Status: model.StatusPtr(model.StatusComplete)})
	assert.ErrorIs(t, err, model.ErrJobTerminal)

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
}

func TestMemoryStore_ProgressNeverDecreases(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	job, err := m.CreateJob(ctx, "user-1", model.KindSoraVideo, nil)
	require.NoError(t, err)

	_, err = m.UpdateJob(ctx, job.ID, model.JobUpdate{Progress: model.IntPtr(55)})
	require.NoError(t, err)
	got, err := m.UpdateJob(ctx, job.ID, model.JobUpdate{Progress: model.IntPtr(20)})
	require.NoError(t, err)

	assert.Equal(t, 55, got.Progress)
}

func TestMemoryStore_UpdateAdvancesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m, now := newTestMemoryStore(start)

	job, err := m.CreateJob(ctx, "user-1", model.KindSoraVideo, nil)
	require.NoError(t, err)

	*now = start.Add(time.Minute)
	got, err := m.UpdateJob(ctx, job.ID, model.JobUpdate{Status: model.StatusPtr(model.StatusLoading)})
	require.NoError(t, err)

	assert.Equal(t, start, got.CreatedAt)
	assert.Equal(t, start.Add(time.Minute), got.UpdatedAt)
}

func TestMemoryStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m, now := newTestMemoryStore(start)

	var ids []uuid.UUID
	for i, kind := range []model.Kind{model.KindGptImageGenerate, model.KindSoraVideo, model.KindGptImageGenerate} {
		*now = start.Add(time.Duration(i) * time.Minute)
		job, err := m.CreateJob(ctx, "user-1", kind, nil)
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	_, err := m.CreateJob(ctx, "user-2", model.KindGptImageGenerate, nil)
	require.NoError(t, err)

	all, err := m.ListJobs(ctx, "user-1", model.ListFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	images, err := m.ListJobs(ctx, "user-1", model.ListFilter{Kind: model.KindGptImageGenerate}, 10)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	limited, err := m.ListJobs(ctx, "user-1", model.ListFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ids[2], limited[0].ID)
}

func TestMemoryStore_StaleSweepIsGuarded(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m, now := newTestMemoryStore(start)

	stale, err := m.CreateJob(ctx, "user-1", model.KindSoraVideo, nil)
	require.NoError(t, err)
	done, err := m.CreateJob(ctx, "user-1", model.KindSoraVideo, nil)
	require.NoError(t, err)
	_, err = m.UpdateJob(ctx, done.ID, model.JobUpdate{Status: model.StatusPtr(model.StatusComplete), Result: json.RawMessage(`{}`)})
	require.NoError(t, err)

	*now = start.Add(30 * time.Minute)
	cutoff := now.Add(-20 * time.Minute)

	found, err := m.ListStaleJobs(ctx, model.NonTerminalStatuses, cutoff)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)

	failed, err := m.FailStaleJobs(ctx, []uuid.UUID{stale.ID, done.ID}, cutoff, "timed out")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{stale.ID}, failed)

	again, err := m.FailStaleJobs(ctx, []uuid.UUID{stale.ID}, cutoff, "timed out")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestMemoryStore_DeleteExpiredJobs(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m, now := newTestMemoryStore(start)

	oldDone, err := m.CreateJob(ctx, "user-1", model.KindGptImageEdit, nil)
	require.NoError(t, err)
	_, err = m.UpdateJob(ctx, oldDone.ID, model.JobUpdate{Status: model.StatusPtr(model.StatusFailed), Error: model.StringPtr("x")})
	require.NoError(t, err)
	oldPending, err := m.CreateJob(ctx, "user-1", model.KindGptImageEdit, nil)
	require.NoError(t, err)

	*now = start.AddDate(0, 0, 40)
	n, err := m.DeleteExpiredJobs(ctx, []model.Kind{model.KindGptImageEdit}, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = m.GetJob(ctx, oldDone.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = m.GetJob(ctx, oldPending.ID)
	assert.NoError(t, err)
}
