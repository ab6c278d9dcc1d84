package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL      = "https://engine.prod.bria-api.com/v1"
	defaultModelVersion = "2.2"
	defaultTimeout      = 60 * time.Second
)

// Options configures the generation service client.
type Options struct {
	BaseURL        string
	ModelVersion   string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *zerolog.Logger
}

// Client performs single request/response exchanges with the remote image
// generation service. It never retries and never caches.
type Client struct {
	baseURL      string
	modelVersion string
	httpClient   *http.Client
	logger       zerolog.Logger
}

// TextToImageRequest carries the inputs of a text-to-image call.
type TextToImageRequest struct {
	Prompt      string
	Count       int
	AspectRatio string
}

// LifestyleRequest carries the inputs of a lifestyle-shot call.
type LifestyleRequest struct {
	Image       []byte
	Description string
	Sync        bool
	Count       int
}

// FillRequest carries the inputs of a generative fill call.
type FillRequest struct {
	Image  []byte
	Mask   []byte
	Prompt string
	Sync   bool
}

// LifestyleResult is the undecoded nested result of a lifestyle call.
type LifestyleResult struct {
	Raw json.RawMessage
}

// URL extracts the display URL from the nested result.
func (r *LifestyleResult) URL() (string, error) {
	return ExtractLifestyleURL(r.Raw)
}

// FillResult is the undecoded result of a generative fill call.
type FillResult struct {
	Raw json.RawMessage
}

// URL extracts the result URL, accepting either response shape.
func (r *FillResult) URL() (string, error) {
	return ExtractFillURL(r.Raw)
}

type enhanceBody struct {
	Prompt string `json:"prompt"`
}

type textToImageBody struct {
	Prompt      string `json:"prompt"`
	NumResults  int    `json:"num_results"`
	AspectRatio string `json:"aspect_ratio"`
	Sync        bool   `json:"sync"`
}

type packshotBody struct {
	File            string `json:"file"`
	BackgroundColor string `json:"background_color"`
	Sync            bool   `json:"sync"`
}

type shadowBody struct {
	ImageURL string `json:"image_url"`
	Sync     bool   `json:"sync"`
}

type lifestyleBody struct {
	File             string `json:"file"`
	SceneDescription string `json:"scene_description"`
	NumResults       int    `json:"num_results"`
	Sync             bool   `json:"sync"`
}

type fillBody struct {
	File     string `json:"file"`
	MaskFile string `json:"mask_file"`
	Prompt   string `json:"prompt"`
	Sync     bool   `json:"sync"`
}

// NewClient constructs a client with defaults for anything left unset.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelVersion := strings.TrimSpace(opts.ModelVersion)
	if modelVersion == "" {
		modelVersion = defaultModelVersion
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "generation").Logger()
	}
	return &Client{
		baseURL:      baseURL,
		modelVersion: modelVersion,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Enhance asks the service to rewrite a prompt into a richer one.
func (c *Client) Enhance(ctx context.Context, apiKey, prompt string) (string, error) {
	raw, err := c.post(ctx, "enhance", "/prompt_enhancer", apiKey, enhanceBody{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return extractEnhancedPrompt(raw)
}

// TextToImage generates images and returns their URLs in response order.
func (c *Client) TextToImage(ctx context.Context, apiKey string, req TextToImageRequest) ([]string, error) {
	body := textToImageBody{
		Prompt:      req.Prompt,
		NumResults:  req.Count,
		AspectRatio: req.AspectRatio,
		Sync:        true,
	}
	raw, err := c.post(ctx, "text_to_image", "/text-to-image/hd/"+c.modelVersion, apiKey, body)
	if err != nil {
		return nil, err
	}
	return ExtractGeneratedURLs(raw)
}

// Packshot composites the image onto a solid background.
func (c *Client) Packshot(ctx context.Context, apiKey string, image []byte, backgroundColor string) (string, error) {
	body := packshotBody{
		File:            base64.StdEncoding.EncodeToString(image),
		BackgroundColor: backgroundColor,
		Sync:            true,
	}
	raw, err := c.post(ctx, "packshot", "/product/packshot", apiKey, body)
	if err != nil {
		return "", err
	}
	return extractResultURL("packshot", raw)
}

// Shadow adds a realistic shadow to an already hosted image.
func (c *Client) Shadow(ctx context.Context, apiKey, imageURL string) (string, error) {
	raw, err := c.post(ctx, "shadow", "/product/shadow", apiKey, shadowBody{ImageURL: imageURL, Sync: true})
	if err != nil {
		return "", err
	}
	return extractResultURL("shadow", raw)
}

// Lifestyle places the product into a scene described by text. The nested
// result is returned undecoded; see LifestyleResult.URL.
func (c *Client) Lifestyle(ctx context.Context, apiKey string, req LifestyleRequest) (*LifestyleResult, error) {
	body := lifestyleBody{
		File:             base64.StdEncoding.EncodeToString(req.Image),
		SceneDescription: req.Description,
		NumResults:       req.Count,
		Sync:             req.Sync,
	}
	raw, err := c.post(ctx, "lifestyle", "/product/lifestyle_shot_by_text", apiKey, body)
	if err != nil {
		return nil, err
	}
	return &LifestyleResult{Raw: raw}, nil
}

// GenerativeFill replaces the masked region of the image. An empty prompt
// removes the masked content.
func (c *Client) GenerativeFill(ctx context.Context, apiKey string, req FillRequest) (*FillResult, error) {
	body := fillBody{
		File:     base64.StdEncoding.EncodeToString(req.Image),
		MaskFile: base64.StdEncoding.EncodeToString(req.Mask),
		Prompt:   req.Prompt,
		Sync:     req.Sync,
	}
	raw, err := c.post(ctx, "generative_fill", "/gen_fill", apiKey, body)
	if err != nil {
		return nil, err
	}
	return &FillResult{Raw: raw}, nil
}

func (c *Client) post(ctx context.Context, op, path, apiKey string, payload any) ([]byte, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("generation: %s: encode request: %w", op, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("generation: %s: build request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("api_token", apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(raw)).
		Msg("generation service call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(raw)
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, &ServiceError{Op: op, Status: resp.StatusCode, Message: msg}
	}
	if msg := errorMessage(raw); msg != "" {
		return nil, &ServiceError{Op: op, Status: resp.StatusCode, Message: msg}
	}
	return raw, nil
}

// errorMessage pulls an explicit error out of a response body. It accepts
// {"error":"..."}, {"error":{"message":"..."}} and {"message":"..."} when
// the latter comes with an "error" or "code" marker.
func errorMessage(raw []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		var text string
		if err := json.Unmarshal(envelope.Error, &text); err == nil {
			return strings.TrimSpace(text)
		}
		var flag bool
		if err := json.Unmarshal(envelope.Error, &flag); err == nil && !flag {
			return ""
		}
		var detail struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &detail); err == nil && strings.TrimSpace(detail.Message) != "" {
			return strings.TrimSpace(detail.Message)
		}
		if envelope.Message != "" {
			return strings.TrimSpace(envelope.Message)
		}
		return strings.TrimSpace(string(envelope.Error))
	}
	if len(envelope.Code) > 0 && string(envelope.Code) != "null" && envelope.Message != "" {
		return strings.TrimSpace(envelope.Message)
	}
	return ""
}

// IsServiceError reports whether err came from a failed service exchange.
func IsServiceError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr)
}

// IsParsingError reports whether err is an unrecognised response shape.
func IsParsingError(err error) bool {
	var parseErr *ParsingError
	return errors.As(err, &parseErr)
}
