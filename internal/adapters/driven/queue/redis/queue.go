// Package redis provides a JobQueue adapter backed by a Redis list.
// Producers LPUSH serialized jobs; the worker RPOPs them, so the list
// behaves as a FIFO queue. Pop atomicity across competing workers is
// Redis's RPOP guarantee.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/maanavnair/synapse/internal/core/domain"
	"github.com/maanavnair/synapse/internal/core/ports/driven"
)

// Ensure Queue implements the interface.
var _ driven.JobQueue = (*Queue)(nil)

// DefaultKey is the list key holding pending ingestion jobs.
const DefaultKey = "repo-ingest-queue"

// Config holds connection details for the Redis queue.
type Config struct {
	// URL is a redis:// or rediss:// connection string (required).
	URL string

	// Key is the list key (default "repo-ingest-queue").
	Key string
}

// Queue is a Redis-list-backed job queue.
type Queue struct {
	client *redis.Client
	key    string
}

// New creates a Redis queue from a connection URL.
func New(cfg Config) (*Queue, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis: URL is required")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse URL: %w", err)
	}
	return &Queue{client: redis.NewClient(opts), key: cfg.Key}, nil
}

// Push appends a job payload to the head of the list.
func (q *Queue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("redis: push: %w: %w", domain.ErrTransient, err)
	}
	return nil
}

// Pop removes and returns the payload at the tail of the list. An
// empty list is not an error.
func (q *Queue) Pop(ctx context.Context) ([]byte, bool, error) {
	payload, err := q.client.RPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: pop: %w: %w", domain.ErrTransient, err)
	}
	return payload, true, nil
}

// Len returns the number of pending jobs. Used by health reporting.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: llen: %w: %w", domain.ErrTransient, err)
	}
	return n, nil
}

// Close releases the client's connection pool.
func (q *Queue) Close() error {
	return q.client.Close()
}
