// Package gemini implements the generation.Generator interface using
// Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/studiolore/mediacore/internal/config"
	"github.com/studiolore/mediacore/internal/generation"
)

// Generator produces media descriptions through the Gemini API. It performs
// a single API call per request; retry policy belongs to the task closures
// that wrap it.
type Generator struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini-backed Generator from LLM configuration.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: logger,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Describe implements generation.Generator.
func (g *Generator) Describe(ctx context.Context, req generation.Request) (string, error) {
	if req.Prompt == "" {
		return "", generation.ErrEmptyPrompt
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Data) > 0 {
		if req.MimeType == "" {
			return "", fmt.Errorf("%w: media payload without a mime type", generation.ErrInvalidConfig)
		}
		parts = append(parts, genai.NewPartFromBytes(req.Data, req.MimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	g.logger.DebugContext(ctx, "calling Gemini API",
		"key", req.Key,
		"model", g.model,
		"payload_bytes", len(req.Data))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	g.logger.DebugContext(ctx, "Gemini API call successful",
		"key", req.Key,
		"response_chars", len(text))

	return text, nil
}
