// Package openai provides an embedding service adapter backed by the
// OpenAI embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/maanavnair/synapse/internal/core/domain"
	"github.com/maanavnair/synapse/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// DefaultModel is the embedding model used when none is configured.
// It must be identical at ingestion time and at query time.
const DefaultModel = "text-embedding-3-large"

// modelDimensions maps OpenAI embedding models to their output width.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API endpoint, for Azure or compatible APIs.
	BaseURL string

	// Model is the embedding model (default text-embedding-3-large).
	Model string
}

// Service generates embeddings using the OpenAI API.
type Service struct {
	client     *openai.Client
	model      string
	dimensions int
}

// New creates an OpenAI embedding service.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("openai: unknown embedding model %q", cfg.Model)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Service{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// EmbedBatch generates embeddings for the given texts, preserving
// input order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(s.model),
		Input: texts,
	})
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	// The API reports each embedding's input index; order by it rather
	// than trusting response order.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != s.dimensions {
			return nil, fmt.Errorf("%w: model %s returned %d dimensions, want %d",
				domain.ErrSchemaConflict, s.model, len(d.Embedding), s.dimensions)
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *Service) Dimensions() int { return s.dimensions }

// ModelName returns the embedding model identifier.
func (s *Service) ModelName() string { return s.model }

// wrapError maps OpenAI API failures onto the domain taxonomy.
func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return fmt.Errorf("openai: %w: %w", domain.ErrUnauthorized, err)
		case apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("openai: %w: %w", domain.ErrTransient, err)
		}
		return fmt.Errorf("openai: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("openai: %w: %w", domain.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("openai: %w: %w", domain.ErrTimeout, err)
	}
	return fmt.Errorf("openai: %w", err)
}
