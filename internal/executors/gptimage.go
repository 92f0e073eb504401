package executors

import (
	"context"

	"mediaforge/internal/jobs"
	"mediaforge/internal/media"
	"mediaforge/internal/model"
	"mediaforge/internal/providers/openai"
)

const defaultModeration = "low"

// GptImageGenerate renders a gpt-image-1 image synchronously.
type GptImageGenerate struct {
	client OpenAIImages
	media  MediaStore
}

func (e *GptImageGenerate) Start(ctx context.Context, in model.GptImageGenSettings) (jobs.Started[model.ImageResult], error) {
	moderation := in.Moderation
	if moderation == "" {
		moderation = defaultModeration
	}

	data, err := e.client.GenerateImage(ctx, openai.ImageRequest{
		Model:             in.Model,
		Prompt:            in.Prompt,
		Size:              in.Size,
		Quality:           in.Quality,
		Background:        in.Background,
		OutputFormat:      in.OutputFormat,
		OutputCompression: in.OutputCompression,
		Moderation:        moderation,
	})
	if err != nil {
		return jobs.Rejected[model.ImageResult](err), nil
	}
	return saveImage(ctx, e.media, data, media.ContentTypeForFormat(in.OutputFormat))
}

// GptImageEdit edits one or more source images with gpt-image-1.
type GptImageEdit struct {
	client  OpenAIImages
	media   MediaStore
	fetcher Fetcher
}

func (e *GptImageEdit) Start(ctx context.Context, in model.GptImageEditSettings) (jobs.Started[model.ImageResult], error) {
	assets, err := e.fetcher.FetchAll(ctx, in.Images)
	if err != nil {
		return jobs.Rejected[model.ImageResult](err), nil
	}
	files := make([]openai.File, len(assets))
	for i, a := range assets {
		files[i] = openai.File{Name: a.Name, ContentType: a.ContentType, Data: a.Data}
	}

	data, err := e.client.EditImage(ctx, openai.EditRequest{
		Model:             in.Model,
		Prompt:            in.Prompt,
		Images:            files,
		Size:              in.Size,
		Quality:           in.Quality,
		Background:        in.Background,
		OutputFormat:      in.OutputFormat,
		OutputCompression: in.OutputCompression,
		InputFidelity:     in.InputFidelity,
	})
	if err != nil {
		return jobs.Rejected[model.ImageResult](err), nil
	}
	return saveImage(ctx, e.media, data, media.ContentTypeForFormat(in.OutputFormat))
}

func saveImage(ctx context.Context, store MediaStore, data []byte, contentType string) (jobs.Started[model.ImageResult], error) {
	url, err := store.Save(ctx, imagePrefix, data, contentType)
	if err != nil {
		return jobs.Rejected[model.ImageResult](err), nil
	}
	return jobs.Done(model.ImageResult{ImageURL: url}), nil
}
