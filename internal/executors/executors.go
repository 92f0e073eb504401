package executors

import (
	"context"

	"mediaforge/internal/jobs"
	"mediaforge/internal/media"
	"mediaforge/internal/model"
	"mediaforge/internal/providers/google"
	"mediaforge/internal/providers/openai"
)

// Storage prefixes for generated output.
const (
	imagePrefix = "generated/images"
	videoPrefix = "generated/videos"
)

// MediaStore persists generated bytes and returns their public URL.
type MediaStore interface {
	Save(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
}

// Fetcher loads the reference images named in edit and video inputs.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (media.Asset, error)
	FetchAll(ctx context.Context, refs []string) ([]media.Asset, error)
}

// OpenAIImages is the subset of the OpenAI client used for gpt-image-1.
type OpenAIImages interface {
	GenerateImage(ctx context.Context, req openai.ImageRequest) ([]byte, error)
	EditImage(ctx context.Context, req openai.EditRequest) ([]byte, error)
}

// OpenAIVideos is the subset of the OpenAI client used for sora-2.
type OpenAIVideos interface {
	CreateVideo(ctx context.Context, req openai.VideoRequest) (openai.Video, error)
	RetrieveVideo(ctx context.Context, id string) (openai.Video, error)
	DownloadVideoContent(ctx context.Context, id, variant string) ([]byte, string, error)
}

// GeminiImages is the subset of the Google client used for nano-banana.
type GeminiImages interface {
	GenerateImage(ctx context.Context, req google.ImageRequest) (google.InlineImage, error)
}

// Deps are the collaborators shared by all executors.
type Deps struct {
	Images  OpenAIImages
	Videos  OpenAIVideos
	Gemini  GeminiImages
	Media   MediaStore
	Fetcher Fetcher
}

// NewRegistry binds every job kind to its executor.
func NewRegistry(d Deps) jobs.Registry {
	return jobs.Registry{
		model.KindGptImageGenerate:   jobs.Adapt[model.GptImageGenSettings, model.ImageResult](&GptImageGenerate{client: d.Images, media: d.Media}),
		model.KindGptImageEdit:       jobs.Adapt[model.GptImageEditSettings, model.ImageResult](&GptImageEdit{client: d.Images, media: d.Media, fetcher: d.Fetcher}),
		model.KindNanoBananaGenerate: jobs.Adapt[model.NanoBananaGenSettings, model.ImageResult](&NanoBananaGenerate{client: d.Gemini, media: d.Media}),
		model.KindNanoBananaEdit:     jobs.Adapt[model.NanoBananaEditSettings, model.ImageResult](&NanoBananaEdit{client: d.Gemini, media: d.Media, fetcher: d.Fetcher}),
		model.KindSoraVideo:          jobs.Adapt[model.Sora2Settings, model.VideoResult](&SoraVideo{client: d.Videos, media: d.Media, fetcher: d.Fetcher}),
	}
}
