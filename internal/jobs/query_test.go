package jobs_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"mediaforge/internal/jobs"
	"mediaforge/internal/mocks/jobs_mock"
	"mediaforge/internal/model"
)

func TestRunner_GetStatus(t *testing.T) {
	h := newHarness(t, jobs.Registry{}, jobs.Options{})
	ctx := context.Background()

	job, err := h.store.CreateJob(ctx, "owner", model.KindGptImageGenerate, nil)
	require.NoError(t, err)

	got, err := h.runner.GetStatus(ctx, job.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, model.StatusPending, got.Status)

	_, err = h.runner.GetStatus(ctx, job.ID, "someone-else")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = h.runner.GetStatus(ctx, uuid.New(), "owner")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRunner_ListClampsLimit(t *testing.T) {
	cases := []struct {
		requested int
		want      int
	}{
		{requested: 0, want: jobs.DefaultListLimit},
		{requested: -3, want: jobs.DefaultListLimit},
		{requested: 10, want: 10},
		{requested: 1000, want: jobs.MaxListLimit},
	}

	for _, c := range cases {
		st := jobs_mock.NewMockStore(gomock.NewController(t))
		st.EXPECT().
			ListJobs(gomock.Any(), "user-1", model.ListFilter{Status: model.StatusFailed, Kind: model.KindSoraVideo}, c.want).
			Return([]model.Job{}, nil)

		r := jobs.NewRunner(st, jobs.Registry{}, nil, jobs.Options{})
		_, err := r.List(context.Background(), "user-1", jobs.ListOptions{
			Limit:  c.requested,
			Status: model.StatusFailed,
			Kind:   model.KindSoraVideo,
		})
		require.NoError(t, err)
	}
}
