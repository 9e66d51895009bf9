// Package gemini provides an LLM service adapter backed by the Google
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/maanavnair/synapse/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.LLMService = (*Service)(nil)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Config holds configuration for the Gemini service.
type Config struct {
	// APIKey is the Google AI API key (required).
	APIKey string

	// Model is the generation model (default gemini-2.5-flash-lite).
	Model string
}

// Service produces completions using Gemini.
type Service struct {
	client *genai.Client
	model  string
}

// New creates a Gemini LLM service.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Service{client: client, model: cfg.Model}, nil
}

// Generate produces a completion for the prompt.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: response contained no text parts")
	}
	return b.String(), nil
}

// ModelName returns the generation model identifier.
func (s *Service) ModelName() string { return s.model }

// Close releases the underlying client.
func (s *Service) Close() error { return s.client.Close() }
