package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaforge/internal/config"
	"mediaforge/internal/jobs"
	"mediaforge/internal/model"
	"mediaforge/internal/store"
)

func TestCleanupExpiredData(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	st := store.NewMemoryStore()
	st.Now = clock.Now

	finish := func(kind model.Kind) model.Job {
		job, err := st.CreateJob(ctx, "user-1", kind, nil)
		require.NoError(t, err)
		_, err = st.UpdateJob(ctx, job.ID, model.JobUpdate{Status: model.StatusPtr(model.StatusFailed), Error: model.StringPtr("x")})
		require.NoError(t, err)
		return job
	}

	image := finish(model.KindGptImageGenerate)
	video := finish(model.KindSoraVideo)
	running, err := st.CreateJob(ctx, "user-1", model.KindSoraVideo, nil)
	require.NoError(t, err)

	cfg := config.RetentionConfig{
		Enabled: true,
		Jobs:    config.JobTTLConfig{DefaultDays: 30, VideoDays: 7},
	}

	clock.Advance(10 * 24 * time.Hour)
	stats := jobs.CleanupExpiredData(ctx, cfg, st, clock.Now())
	assert.Equal(t, int64(1), stats.JobsDeleted["video"])
	assert.Zero(t, stats.JobsDeleted["image"])

	_, err = st.GetJob(ctx, video.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = st.GetJob(ctx, image.ID)
	assert.NoError(t, err)
	_, err = st.GetJob(ctx, running.ID)
	assert.NoError(t, err, "non-terminal jobs are never deleted")

	clock.Advance(30 * 24 * time.Hour)
	stats = jobs.CleanupExpiredData(ctx, cfg, st, clock.Now())
	assert.Equal(t, int64(1), stats.JobsDeleted["image"])
}

func TestCleanupExpiredDataDisabled(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	job, err := st.CreateJob(ctx, "user-1", model.KindGptImageGenerate, nil)
	require.NoError(t, err)
	_, err = st.UpdateJob(ctx, job.ID, model.JobUpdate{Status: model.StatusPtr(model.StatusComplete)})
	require.NoError(t, err)

	stats := jobs.CleanupExpiredData(ctx, config.RetentionConfig{Jobs: config.JobTTLConfig{DefaultDays: 1}}, st, time.Now().AddDate(1, 0, 0))
	assert.Empty(t, stats.JobsDeleted)

	_, err = st.GetJob(ctx, job.ID)
	assert.NoError(t, err)
}
