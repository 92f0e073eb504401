package executors

import (
	"context"
	"fmt"

	"mediaforge/internal/jobs"
	"mediaforge/internal/media"
	"mediaforge/internal/model"
	"mediaforge/internal/providers/openai"
)

const (
	queuedProgress      = 10
	defaultVideoFailure = "video generation failed"
)

// SoraVideo starts a sora-2 render and polls it to completion. Finished
// renders are downloaded with their thumbnail and persisted.
type SoraVideo struct {
	client  OpenAIVideos
	media   MediaStore
	fetcher Fetcher
}

func (e *SoraVideo) Start(ctx context.Context, in model.Sora2Settings) (jobs.Started[model.VideoResult], error) {
	req := openai.VideoRequest{
		Model:   in.Model,
		Prompt:  in.Prompt,
		Seconds: in.Seconds,
		Size:    in.Size,
	}
	if in.InputReference != "" {
		ref, err := e.fetcher.Fetch(ctx, in.InputReference)
		if err != nil {
			return jobs.Rejected[model.VideoResult](err), nil
		}
		req.InputReference = &openai.File{
			Name:        "reference" + media.ExtensionFor(ref.ContentType),
			ContentType: ref.ContentType,
			Data:        ref.Data,
		}
	}

	v, err := e.client.CreateVideo(ctx, req)
	if err != nil {
		return jobs.Rejected[model.VideoResult](err), nil
	}
	return jobs.Remote[model.VideoResult](v.ID), nil
}

func (e *SoraVideo) Poll(ctx context.Context, handle string) (jobs.Polled[model.VideoResult], error) {
	v, err := e.client.RetrieveVideo(ctx, handle)
	if err != nil {
		return jobs.Polled[model.VideoResult]{}, err
	}

	switch v.Status {
	case openai.VideoQueued:
		return jobs.StillProcessing[model.VideoResult](model.IntPtr(queuedProgress)), nil
	case openai.VideoInProgress:
		return jobs.StillProcessing[model.VideoResult](v.Progress), nil
	case openai.VideoFailed:
		msg := defaultVideoFailure
		if v.Error != nil && v.Error.Message != "" {
			msg = v.Error.Message
		}
		return jobs.PollFailed[model.VideoResult](msg), nil
	case openai.VideoCompleted:
		out, err := e.persist(ctx, handle)
		if err != nil {
			return jobs.Polled[model.VideoResult]{}, err
		}
		return jobs.Succeeded(out), nil
	default:
		return jobs.StillProcessing[model.VideoResult](model.IntPtr(0)), nil
	}
}

func (e *SoraVideo) persist(ctx context.Context, handle string) (model.VideoResult, error) {
	video, videoType, err := e.client.DownloadVideoContent(ctx, handle, "")
	if err != nil {
		return model.VideoResult{}, fmt.Errorf("download video: %w", err)
	}
	thumb, thumbType, err := e.client.DownloadVideoContent(ctx, handle, "thumbnail")
	if err != nil {
		return model.VideoResult{}, fmt.Errorf("download thumbnail: %w", err)
	}
	if videoType == "" {
		videoType = "video/mp4"
	}
	if thumbType == "" {
		thumbType = "image/webp"
	}

	videoURL, err := e.media.Save(ctx, videoPrefix, video, videoType)
	if err != nil {
		return model.VideoResult{}, err
	}
	thumbURL, err := e.media.Save(ctx, videoPrefix, thumb, thumbType)
	if err != nil {
		return model.VideoResult{}, err
	}
	return model.VideoResult{VideoURL: videoURL, ThumbnailURL: thumbURL}, nil
}
