package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"mediaforge/internal/jobs"
	"mediaforge/internal/mocks/jobs_mock"
	"mediaforge/internal/model"
	"mediaforge/internal/store"
)

func TestJanitor_SweepStale(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	st := store.NewMemoryStore()
	st.Now = clock.Now

	stuck, err := st.CreateJob(ctx, "user-1", model.KindSoraVideo, nil)
	require.NoError(t, err)
	_, err = st.UpdateJob(ctx, stuck.ID, model.JobUpdate{Status: model.StatusPtr(model.StatusLoading), Progress: model.IntPtr(40)})
	require.NoError(t, err)
	lastUpdate := clock.Now()

	done, err := st.CreateJob(ctx, "user-1", model.KindGptImageGenerate, nil)
	require.NoError(t, err)
	_, err = st.UpdateJob(ctx, done.ID, model.JobUpdate{Status: model.StatusPtr(model.StatusComplete), Progress: model.IntPtr(100)})
	require.NoError(t, err)

	clock.Advance(25 * time.Minute)
	fresh, err := st.CreateJob(ctx, "user-2", model.KindNanoBananaEdit, nil)
	require.NoError(t, err)

	janitor := jobs.NewJanitor(st, nil, clock)
	report, err := janitor.SweepStale(ctx, 20*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Count)
	require.Len(t, report.Jobs, 1)
	assert.Equal(t, stuck.ID, report.Jobs[0].ID)
	assert.Equal(t, model.KindSoraVideo, report.Jobs[0].Kind)
	assert.Equal(t, lastUpdate, report.Jobs[0].LastUpdate)

	got, err := st.GetJob(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "timed out after 20 minutes", got.Error)
	assert.Equal(t, 40, got.Progress)

	got, err = st.GetJob(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusComplete, got.Status)

	got, err = st.GetJob(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	again, err := janitor.SweepStale(ctx, 20*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Count)
	assert.Empty(t, again.Jobs)
}

func TestJanitor_ReportsOnlyJobsActuallyFailed(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	st := jobs_mock.NewMockStore(gomock.NewController(t))

	a := model.Job{ID: uuid.New(), Kind: model.KindSoraVideo, Status: model.StatusLoading, UpdatedAt: clock.Now().Add(-time.Hour)}
	b := model.Job{ID: uuid.New(), Kind: model.KindGptImageEdit, Status: model.StatusPending, UpdatedAt: clock.Now().Add(-time.Hour)}

	cutoff := clock.Now().Add(-20 * time.Minute)
	st.EXPECT().ListStaleJobs(gomock.Any(), model.NonTerminalStatuses, cutoff).Return([]model.Job{a, b}, nil)
	// b finished between the read and the guarded update.
	st.EXPECT().FailStaleJobs(gomock.Any(), gomock.Len(2), cutoff, "timed out after 20 minutes").Return([]uuid.UUID{a.ID}, nil)

	report, err := jobs.NewJanitor(st, nil, clock).SweepStale(ctx, 20*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count)
	require.Len(t, report.Jobs, 1)
	assert.Equal(t, a.ID, report.Jobs[0].ID)
}

func TestJanitor_StoreErrorAbortsRun(t *testing.T) {
	clock := newFakeClock()
	st := jobs_mock.NewMockStore(gomock.NewController(t))
	st.EXPECT().ListStaleJobs(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	report, err := jobs.NewJanitor(st, nil, clock).SweepStale(context.Background(), 20*time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 0, report.Count)
}
