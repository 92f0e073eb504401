package executors

import (
	"context"

	"mediaforge/internal/jobs"
	"mediaforge/internal/model"
	"mediaforge/internal/providers/google"
)

// NanoBananaGenerate renders an image with Gemini.
type NanoBananaGenerate struct {
	client GeminiImages
	media  MediaStore
}

func (e *NanoBananaGenerate) Start(ctx context.Context, in model.NanoBananaGenSettings) (jobs.Started[model.ImageResult], error) {
	return e.render(ctx, google.ImageRequest{
		Prompt:      in.Prompt,
		AspectRatio: in.AspectRatio,
		ImageSize:   in.ImageSize,
	})
}

func (e *NanoBananaGenerate) render(ctx context.Context, req google.ImageRequest) (jobs.Started[model.ImageResult], error) {
	img, err := e.client.GenerateImage(ctx, req)
	if err != nil {
		return jobs.Rejected[model.ImageResult](err), nil
	}
	ct := img.MimeType
	if ct == "" {
		ct = "image/png"
	}
	return saveImage(ctx, e.media, img.Data, ct)
}

// NanoBananaEdit sends the source images inline alongside the prompt.
type NanoBananaEdit struct {
	client  GeminiImages
	media   MediaStore
	fetcher Fetcher
}

func (e *NanoBananaEdit) Start(ctx context.Context, in model.NanoBananaEditSettings) (jobs.Started[model.ImageResult], error) {
	assets, err := e.fetcher.FetchAll(ctx, in.Images)
	if err != nil {
		return jobs.Rejected[model.ImageResult](err), nil
	}
	images := make([]google.InlineImage, len(assets))
	for i, a := range assets {
		images[i] = google.InlineImage{MimeType: a.ContentType, Data: a.Data}
	}

	gen := NanoBananaGenerate{client: e.client, media: e.media}
	return gen.render(ctx, google.ImageRequest{
		Prompt:      in.Prompt,
		AspectRatio: in.AspectRatio,
		ImageSize:   in.ImageSize,
		Images:      images,
	})
}
