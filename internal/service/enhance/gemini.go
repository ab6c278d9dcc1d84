package enhance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/zhouzirui/artifex/backend/internal/service/generation"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiEnhancer asks a Gemini model for the enhanced prompt.
type GeminiEnhancer struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

// NewGeminiEnhancer creates a Gemini API client for the given key.
func NewGeminiEnhancer(ctx context.Context, apiKey, modelName string, logger zerolog.Logger) (*GeminiEnhancer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("enhance: GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("enhance: create gemini client: %w", err)
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultGeminiModel
	}
	return &GeminiEnhancer{
		client: client,
		model:  modelName,
		logger: logger.With().Str("component", "enhance").Str("provider", "gemini").Logger(),
	}, nil
}

// Enhance implements Enhancer.
func (e *GeminiEnhancer) Enhance(ctx context.Context, _ string, raw string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(userMessage(raw)), config)
	if err != nil {
		return "", &generation.ServiceError{Op: opEnhance, Err: err}
	}

	out, err := cleanOutput(resp.Text())
	if err != nil {
		return "", err
	}
	e.logger.Debug().Str("model", e.model).Int("out_len", len(out)).Msg("prompt enhanced")
	return out, nil
}
