package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// GptImageGenSettings is the input for gpt-image-1-generate jobs.
type GptImageGenSettings struct {
	Type              Kind   `json:"type"`
	Model             string `json:"model"`
	Prompt            string `json:"prompt"`
	Size              string `json:"size,omitempty"`
	Quality           string `json:"quality,omitempty"`
	Background        string `json:"background,omitempty"`
	OutputFormat      string `json:"output_format,omitempty"`
	OutputCompression *int   `json:"output_compression,omitempty"`
	Moderation        string `json:"moderation,omitempty"`
}

// GptImageEditSettings is the input for gpt-image-1-edit jobs.
type GptImageEditSettings struct {
	GptImageGenSettings
	InputFidelity string   `json:"input_fidelity,omitempty"`
	Images        []string `json:"images"`
}

// NanoBananaGenSettings is the input for nano-banana-generate jobs.
type NanoBananaGenSettings struct {
	Type        Kind   `json:"type"`
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

// NanoBananaEditSettings is the input for nano-banana-edit jobs.
type NanoBananaEditSettings struct {
	NanoBananaGenSettings
	Images []string `json:"images"`
}

// Sora2Settings is the input for sora-2-video jobs.
type Sora2Settings struct {
	Type           Kind   `json:"type"`
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Seconds        string `json:"seconds,omitempty"`
	Size           string `json:"size,omitempty"`
	InputReference string `json:"input_reference,omitempty"`
}

// ImageResult is the output of every image kind.
type ImageResult struct {
	ImageURL string `json:"imageUrl"`
}

// VideoResult is the output of video kinds.
type VideoResult struct {
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

var (
	gptSizes       = []string{"1024x1024", "1536x1024", "1024x1536", "auto"}
	gptQualities   = []string{"low", "medium", "high", "auto"}
	gptBackgrounds = []string{"transparent", "opaque", "auto"}
	gptFormats     = []string{"png", "jpeg", "webp"}
	gptModerations = []string{"low", "auto"}
	gptFidelities  = []string{"high", "low"}
	bananaRatios   = []string{"1:1", "2:3", "3:2", "3:4", "4:3", "9:16", "16:9", "21:9"}
	bananaSizes    = []string{"1K", "2K", "4K"}
	soraSeconds    = []string{"4", "6", "10"}
	soraVideoSizes = []string{"720x1280", "1280x720", "1024x1024"}
)

// Validate checks the generate settings against the accepted values.
func (s GptImageGenSettings) Validate() error {
	if s.Model != "gpt-image-1" {
		return invalid("model must be gpt-image-1")
	}
	if strings.TrimSpace(s.Prompt) == "" {
		return invalid("prompt cannot be empty")
	}
	if err := oneOf("size", s.Size, gptSizes); err != nil {
		return err
	}
	if err := oneOf("quality", s.Quality, gptQualities); err != nil {
		return err
	}
	if err := oneOf("background", s.Background, gptBackgrounds); err != nil {
		return err
	}
	if err := oneOf("output_format", s.OutputFormat, gptFormats); err != nil {
		return err
	}
	if s.OutputCompression != nil && (*s.OutputCompression < 0 || *s.OutputCompression > 100) {
		return invalid("output_compression must be between 0 and 100")
	}
	return oneOf("moderation", s.Moderation, gptModerations)
}

// Validate checks the edit settings, including the source images.
func (s GptImageEditSettings) Validate() error {
	if err := s.GptImageGenSettings.Validate(); err != nil {
		return err
	}
	if err := oneOf("input_fidelity", s.InputFidelity, gptFidelities); err != nil {
		return err
	}
	return imageURLs(s.Images)
}

func (s NanoBananaGenSettings) Validate() error {
	if s.Model != "nano-banana" {
		return invalid("model must be nano-banana")
	}
	if strings.TrimSpace(s.Prompt) == "" {
		return invalid("prompt cannot be empty")
	}
	if err := oneOf("aspectRatio", s.AspectRatio, bananaRatios); err != nil {
		return err
	}
	return oneOf("imageSize", s.ImageSize, bananaSizes)
}

func (s NanoBananaEditSettings) Validate() error {
	if err := s.NanoBananaGenSettings.Validate(); err != nil {
		return err
	}
	return imageURLs(s.Images)
}

func (s Sora2Settings) Validate() error {
	if s.Model != "sora-2" {
		return invalid("model must be sora-2")
	}
	if strings.TrimSpace(s.Prompt) == "" {
		return invalid("prompt cannot be empty")
	}
	if err := oneOf("seconds", s.Seconds, soraSeconds); err != nil {
		return err
	}
	if err := oneOf("size", s.Size, soraVideoSizes); err != nil {
		return err
	}
	if s.InputReference != "" && !isURL(s.InputReference) {
		return invalid("input_reference must be a valid URL")
	}
	return nil
}

// validator is implemented by every settings type above.
type validator interface {
	Validate() error
}

// ValidateSettings decodes raw into the settings type for kind and
// validates it. Unknown fields are rejected so that typos surface to the
// caller instead of being silently dropped.
func ValidateSettings(kind Kind, raw json.RawMessage) error {
	var v validator
	switch kind {
	case KindGptImageGenerate:
		v = &GptImageGenSettings{}
	case KindGptImageEdit:
		v = &GptImageEditSettings{}
	case KindNanoBananaGenerate:
		v = &NanoBananaGenSettings{}
	case KindNanoBananaEdit:
		v = &NanoBananaEditSettings{}
	case KindSoraVideo:
		v = &Sora2Settings{}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return v.Validate()
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func oneOf(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return invalid(fmt.Sprintf("%s must be one of %s", field, strings.Join(allowed, ", ")))
}

func imageURLs(images []string) error {
	if len(images) == 0 {
		return invalid("at least one image is required")
	}
	for _, img := range images {
		if !isURL(img) {
			return invalid("invalid image URL: " + img)
		}
	}
	return nil
}

func isURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
