package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediaforge/internal/config"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client talks to the OpenAI images and videos endpoints.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	// videoHTTP serves video create, status and download calls.
	videoHTTP *http.Client
}

func New(cfg config.OpenAIConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   base,
		http:      &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		videoHTTP: &http.Client{Timeout: time.Duration(cfg.VideoTimeoutMs) * time.Millisecond},
	}
}

// APIError is returned for non-2xx responses. Message carries the
// provider's own explanation when the body had one.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openai %s failed with status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("openai %s failed with status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// File is an upload part for multipart endpoints.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ImageRequest mirrors the images/generations parameters.
type ImageRequest struct {
	Model             string `json:"model"`
	Prompt            string `json:"prompt"`
	Size              string `json:"size,omitempty"`
	Quality           string `json:"quality,omitempty"`
	Background        string `json:"background,omitempty"`
	OutputFormat      string `json:"output_format,omitempty"`
	OutputCompression *int   `json:"output_compression,omitempty"`
	Moderation        string `json:"moderation,omitempty"`
}

// EditRequest mirrors the images/edits parameters. Moderation is not
// accepted by the edit endpoint.
type EditRequest struct {
	Model             string
	Prompt            string
	Images            []File
	Size              string
	Quality           string
	Background        string
	OutputFormat      string
	OutputCompression *int
	InputFidelity     string
}

type imagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// GenerateImage renders one image and returns its decoded bytes.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var parsed imagesResponse
	if err := c.do(c.http, httpReq, "image generation", &parsed); err != nil {
		return nil, err
	}
	return firstImage(parsed)
}

// EditImage edits the given source images and returns the decoded result.
func (c *Client) EditImage(ctx context.Context, req EditRequest) ([]byte, error) {
	if len(req.Images) == 0 {
		return nil, errors.New("openai image edit requires at least one image")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"model":          req.Model,
		"prompt":         req.Prompt,
		"size":           req.Size,
		"quality":        req.Quality,
		"background":     req.Background,
		"output_format":  req.OutputFormat,
		"input_fidelity": req.InputFidelity,
	}
	if req.OutputCompression != nil {
		fields["output_compression"] = strconv.Itoa(*req.OutputCompression)
	}
	if err := writeFields(w, fields); err != nil {
		return nil, err
	}
	for i, img := range req.Images {
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("image-%d.png", i)
		}
		if err := writeFile(w, "image[]", name, img); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/images/edits", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var parsed imagesResponse
	if err := c.do(c.http, httpReq, "image edit", &parsed); err != nil {
		return nil, err
	}
	return firstImage(parsed)
}

// VideoRequest mirrors the videos create parameters.
type VideoRequest struct {
	Model          string
	Prompt         string
	Seconds        string
	Size           string
	InputReference *File
}

// Video is the provider's view of a render job.
type Video struct {
	ID       string      `json:"id"`
	Status   string      `json:"status"`
	Progress *int        `json:"progress,omitempty"`
	Error    *VideoError `json:"error,omitempty"`
}

type VideoError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Video statuses reported by the API.
const (
	VideoQueued     = "queued"
	VideoInProgress = "in_progress"
	VideoCompleted  = "completed"
	VideoFailed     = "failed"
)

// CreateVideo starts a render and returns the created job.
func (c *Client) CreateVideo(ctx context.Context, req VideoRequest) (Video, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := writeFields(w, map[string]string{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"seconds": req.Seconds,
		"size":    req.Size,
	}); err != nil {
		return Video{}, err
	}
	if ref := req.InputReference; ref != nil {
		name := ref.Name
		if name == "" {
			name = "reference.png"
		}
		if err := writeFile(w, "input_reference", name, *ref); err != nil {
			return Video{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Video{}, err
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/videos", &body)
	if err != nil {
		return Video{}, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var v Video
	if err := c.do(c.videoHTTP, httpReq, "video create", &v); err != nil {
		return Video{}, err
	}
	if v.ID == "" {
		return Video{}, errors.New("openai video create returned no id")
	}
	return v, nil
}

// RetrieveVideo reads the current state of a render.
func (c *Client) RetrieveVideo(ctx context.Context, id string) (Video, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/videos/"+url.PathEscape(id), nil)
	if err != nil {
		return Video{}, err
	}
	var v Video
	if err := c.do(c.videoHTTP, httpReq, "video retrieve", &v); err != nil {
		return Video{}, err
	}
	return v, nil
}

// DownloadVideoContent fetches the rendered video, or another variant
// such as "thumbnail" when variant is set. It returns the bytes and the
// reported content type.
func (c *Client) DownloadVideoContent(ctx context.Context, id, variant string) ([]byte, string, error) {
	endpoint := "/videos/" + url.PathEscape(id) + "/content"
	if variant != "" {
		endpoint += "?variant=" + url.QueryEscape(variant)
	}
	httpReq, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.videoHTTP.Do(httpReq)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", apiError("video download", resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

func (c *Client) do(hc *http.Client, req *http.Request, op string, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai %s: decode response: %w", op, err)
	}
	return nil
}

func apiError(op string, resp *http.Response) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &parsed)
	return &APIError{Operation: op, StatusCode: resp.StatusCode, Message: parsed.Error.Message}
}

func firstImage(resp imagesResponse) ([]byte, error) {
	if len(resp.Data) == 0 {
		return nil, errors.New("no image data returned from OpenAI")
	}
	if resp.Data[0].B64JSON == "" {
		return nil, errors.New("no b64_json in OpenAI response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode b64_json: %w", err)
	}
	return data, nil
}

func writeFields(w *multipart.Writer, fields map[string]string) error {
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(w *multipart.Writer, field, name string, f File) error {
	ct := f.ContentType
	if ct == "" {
		ct = "image/png"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}
