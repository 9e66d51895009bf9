package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/maanavnair/synapse/internal/adapters/driven/embedding/openai"
	"github.com/maanavnair/synapse/internal/adapters/driven/llm/gemini"
	redisq "github.com/maanavnair/synapse/internal/adapters/driven/queue/redis"
	sqliteq "github.com/maanavnair/synapse/internal/adapters/driven/queue/sqlite"
	"github.com/maanavnair/synapse/internal/adapters/driven/vector/qdrant"
	"github.com/maanavnair/synapse/internal/chunker"
	"github.com/maanavnair/synapse/internal/config"
	"github.com/maanavnair/synapse/internal/connectors/github"
	"github.com/maanavnair/synapse/internal/core/ports/driven"
	"github.com/maanavnair/synapse/internal/core/services"
)

// app holds the assembled service graph for one process.
type app struct {
	ingestor *services.Ingestor
	answerer *services.Answerer
	worker   *services.Worker
	queue    driven.JobQueue

	closers []io.Closer
}

// buildApp constructs every adapter and service from the loaded
// configuration. ctx is only used for client construction.
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}

	embedder, err := openai.New(openai.Config{
		APIKey: cfg.Embedding.APIKey,
		Model:  cfg.Embedding.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}

	llm, err := gemini.New(ctx, gemini.Config{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("llm service: %w", err)
	}
	a.closers = append(a.closers, llm)

	index := qdrant.New(qdrant.Config{
		BaseURL:    cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	}, log.With("component", "qdrant"))

	queue, err := buildQueue(cfg.Queue)
	if err != nil {
		return nil, err
	}
	a.queue = queue
	if closer, ok := queue.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}

	fetcher := github.NewFetcher(github.WithLogger(log.With("component", "github")))
	split := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	a.ingestor = services.NewIngestor(fetcher, split, embedder, index, log.With("component", "ingestor"),
		services.WithEmbedBatchSize(cfg.Embedding.BatchSize),
		services.WithUpsertBatchSize(cfg.Qdrant.BatchSize),
		services.WithDefaultRef(cfg.GitHub.Ref),
		services.WithFallbackToken(cfg.GitHub.Token),
	)
	a.answerer = services.NewAnswerer(embedder, index, llm, log.With("component", "answerer"),
		services.WithTopK(cfg.Retrieval.TopK),
		services.WithContextBudget(cfg.Retrieval.ContextBudget),
	)
	a.worker = services.NewWorker(queue, a.ingestor, log.With("component", "worker"),
		services.WithPollInterval(cfg.Queue.PollInterval),
	)
	return a, nil
}

func buildQueue(cfg config.QueueConfig) (driven.JobQueue, error) {
	switch cfg.Backend {
	case "redis":
		return redisq.New(redisq.Config{URL: cfg.RedisURL, Key: cfg.Key})
	case "sqlite":
		return sqliteq.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}

// close shuts the adapters down, newest first.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
}

// shutdownTimeout bounds graceful HTTP shutdown in serve.
const shutdownTimeout = 10 * time.Second
