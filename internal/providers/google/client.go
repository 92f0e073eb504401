package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mediaforge/internal/config"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash-image"
)

// Client calls Gemini's generateContent for image output.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func New(cfg config.GoogleConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: base,
		model:   model,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
	}
}

// InlineImage is an image passed to or returned from the model.
type InlineImage struct {
	MimeType string
	Data     []byte
}

// ImageRequest describes one generation or, when Images is set, an edit.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	ImageSize   string
	Images      []InlineImage
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// GenerateImage runs the prompt (plus any source images) and returns the
// first image part of the response.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (InlineImage, error) {
	parts := []part{{Text: req.Prompt}}
	for _, img := range req.Images {
		mt := img.MimeType
		if mt == "" {
			mt = "image/png"
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: mt,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}

	body := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}
	if req.AspectRatio != "" || req.ImageSize != "" {
		body.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: req.AspectRatio, ImageSize: req.ImageSize}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return InlineImage{}, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return InlineImage{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return InlineImage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return InlineImage{}, apiError(resp)
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return InlineImage{}, err
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return InlineImage{}, fmt.Errorf("google blocked the prompt: %s", parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return InlineImage{}, errors.New("no response from Google AI")
	}

	for _, p := range parsed.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return InlineImage{}, fmt.Errorf("decode inline image: %w", err)
		}
		return InlineImage{MimeType: p.InlineData.MimeType, Data: data}, nil
	}
	return InlineImage{}, errors.New("no image data returned from Google AI")
}

func apiError(resp *http.Response) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("google generateContent failed with status %d: %s", resp.StatusCode, parsed.Error.Message)
	}
	return fmt.Errorf("google generateContent failed with status %d", resp.StatusCode)
}
