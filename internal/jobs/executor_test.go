package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaforge/internal/jobs"
	"mediaforge/internal/model"
)

type echoInput struct {
	Prompt string `json:"prompt"`
}

type syncEcho struct{}

func (syncEcho) Start(_ context.Context, in echoInput) (jobs.Started[model.ImageResult], error) {
	if in.Prompt == "" {
		return jobs.Rejected[model.ImageResult](errors.New("empty prompt")), nil
	}
	return jobs.Done(model.ImageResult{ImageURL: "/media/" + in.Prompt + ".png"}), nil
}

type remoteEcho struct {
	polls int
}

func (r *remoteEcho) Start(context.Context, echoInput) (jobs.Started[model.VideoResult], error) {
	return jobs.Remote[model.VideoResult]("op-1"), nil
}

func (r *remoteEcho) Poll(_ context.Context, handle string) (jobs.Polled[model.VideoResult], error) {
	r.polls++
	switch r.polls {
	case 1:
		return jobs.StillProcessing[model.VideoResult](model.IntPtr(30)), nil
	case 2:
		return jobs.PollFailed[model.VideoResult]("provider says no"), nil
	default:
		return jobs.Succeeded(model.VideoResult{VideoURL: handle + ".mp4"}), nil
	}
}

func TestAdaptSyncProcessor(t *testing.T) {
	exec := jobs.Adapt[echoInput, model.ImageResult](syncEcho{})
	_, isPoller := exec.(jobs.Poller)
	assert.False(t, isPoller)

	res, err := exec.Start(context.Background(), json.RawMessage(`{"prompt":"fox"}`))
	require.NoError(t, err)
	assert.Equal(t, jobs.SyncHandle, res.Handle)
	require.NotNil(t, res.Result)
	assert.True(t, res.Result.Success)
	assert.JSONEq(t, `{"imageUrl":"/media/fox.png"}`, string(res.Result.Output))

	res, err = exec.Start(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NotNil(t, res.Result)
	assert.False(t, res.Result.Success)
	assert.Equal(t, "empty prompt", res.Result.Error)

	_, err = exec.Start(context.Background(), json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestAdaptPollingProcessor(t *testing.T) {
	exec := jobs.Adapt[echoInput, model.VideoResult](&remoteEcho{})
	poller, ok := exec.(jobs.Poller)
	require.True(t, ok)

	res, err := exec.Start(context.Background(), json.RawMessage(`{"prompt":"waves"}`))
	require.NoError(t, err)
	assert.Equal(t, "op-1", res.Handle)
	assert.Nil(t, res.Result)

	p, err := poller.Poll(context.Background(), "op-1")
	require.NoError(t, err)
	assert.True(t, p.Processing)
	require.NotNil(t, p.Progress)
	assert.Equal(t, 30, *p.Progress)

	p, err = poller.Poll(context.Background(), "op-1")
	require.NoError(t, err)
	assert.False(t, p.Processing)
	assert.False(t, p.Result.Success)
	assert.Equal(t, "provider says no", p.Result.Error)

	p, err = poller.Poll(context.Background(), "op-1")
	require.NoError(t, err)
	assert.True(t, p.Result.Success)
	assert.JSONEq(t, `{"videoUrl":"op-1.mp4","thumbnailUrl":""}`, string(p.Result.Output))
}
