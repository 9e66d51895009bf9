package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maanavnair/synapse/internal/chunker"
	"github.com/maanavnair/synapse/internal/core/domain"
	"github.com/maanavnair/synapse/internal/core/ports/driven"
	"github.com/maanavnair/synapse/internal/metrics"
)

// DefaultEmbedBatchSize is the number of chunk texts sent to the
// embedding service per request.
const DefaultEmbedBatchSize = 64

// DefaultUpsertBatchSize is the number of records written to the
// vector index per upsert call.
const DefaultUpsertBatchSize = 5

// Ingestor runs the ingestion pipeline: fetch a repository, chunk its
// documents, embed the chunks and upsert the resulting records into
// the project's partition of the vector index.
type Ingestor struct {
	fetcher  driven.RepositoryFetcher
	splitter *chunker.Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	log      *slog.Logger

	embedBatch    int
	upsertBatch   int
	defaultRef    string
	fallbackToken string
	newID         func() string
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithEmbedBatchSize sets the embedding request batch size.
func WithEmbedBatchSize(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.embedBatch = n
		}
	}
}

// WithUpsertBatchSize sets the vector upsert batch size.
func WithUpsertBatchSize(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.upsertBatch = n
		}
	}
}

// WithDefaultRef sets the ref fetched when a job does not name one.
// The fetcher falls back to "main" when this is empty too.
func WithDefaultRef(ref string) IngestorOption {
	return func(i *Ingestor) { i.defaultRef = ref }
}

// WithFallbackToken sets the access token used when a job carries none.
func WithFallbackToken(token string) IngestorOption {
	return func(i *Ingestor) { i.fallbackToken = token }
}

// NewIngestor creates the ingestion service.
func NewIngestor(
	fetcher driven.RepositoryFetcher,
	splitter *chunker.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	log *slog.Logger,
	opts ...IngestorOption,
) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	ing := &Ingestor{
		fetcher:     fetcher,
		splitter:    splitter,
		embedder:    embedder,
		index:       index,
		log:         log,
		embedBatch:  DefaultEmbedBatchSize,
		upsertBatch: DefaultUpsertBatchSize,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Setup prepares the vector collection and the project payload index.
// It is idempotent. Searches must not be served before it has
// succeeded once, so process startup runs it in addition to every job.
func (i *Ingestor) Setup(ctx context.Context) error {
	if err := i.index.EnsureCollection(ctx, i.embedder.Dimensions()); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if err := i.index.EnsureProjectIndex(ctx); err != nil {
		return fmt.Errorf("ensure project index: %w", err)
	}
	return nil
}

// Ingest executes one ingestion job and returns the number of records
// written.
func (i *Ingestor) Ingest(ctx context.Context, job domain.IngestionJob) (int, error) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	if err := job.Validate(); err != nil {
		return 0, err
	}

	log := i.log.With("jobId", job.JobID, "projectId", job.ProjectID, "repo", job.RepoName)

	if err := i.Setup(ctx); err != nil {
		return 0, err
	}

	token := job.AccessToken
	if token == "" {
		token = i.fallbackToken
	}

	docs, err := i.fetcher.Fetch(ctx, job.RepoName, i.defaultRef, token)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", job.RepoName, err)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: repository %s produced no ingestable documents", domain.ErrInvalidInput, job.RepoName)
	}
	metrics.DocumentsFetched.Add(float64(len(docs)))
	log.Info("fetched repository", "documents", len(docs))

	chunks := i.splitter.SplitAll(docs)
	if len(chunks) == 0 {
		log.Warn("documents contained no chunkable content")
		return 0, nil
	}

	records, err := i.embedChunks(ctx, job.ProjectID, chunks)
	if err != nil {
		return 0, err
	}

	for batchStart := 0; batchStart < len(records); batchStart += i.upsertBatch {
		batchEnd := min(batchStart+i.upsertBatch, len(records))
		if err := i.index.UpsertBatch(ctx, records[batchStart:batchEnd]); err != nil {
			return 0, fmt.Errorf("upsert records %d-%d: %w", batchStart, batchEnd, err)
		}
	}
	metrics.RecordsUpserted.Add(float64(len(records)))

	log.Info("ingestion complete",
		"documents", len(docs),
		"chunks", len(chunks),
		"records", len(records),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return len(records), nil
}

// embedChunks embeds all chunks in batches and assembles the vector
// records, one per chunk, in input order.
func (i *Ingestor) embedChunks(ctx context.Context, projectID string, chunks []domain.Chunk) ([]domain.VectorRecord, error) {
	records := make([]domain.VectorRecord, 0, len(chunks))

	for batchStart := 0; batchStart < len(chunks); batchStart += i.embedBatch {
		batchEnd := min(batchStart+i.embedBatch, len(chunks))
		batch := chunks[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for j, chunk := range batch {
			texts[j] = chunk.Text
		}

		vectors, err := i.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", batchStart, batchEnd, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed chunks %d-%d: embedding service returned %d vectors for %d inputs",
				batchStart, batchEnd, len(vectors), len(batch))
		}
		metrics.ChunksEmbedded.Add(float64(len(batch)))

		for j, chunk := range batch {
			records = append(records, domain.VectorRecord{
				ID:          i.newID(),
				Vector:      vectors[j],
				ProjectID:   projectID,
				Path:        chunk.Path,
				Revision:    chunk.Revision,
				SourceURL:   chunk.SourceURL,
				ContentHash: domain.Fingerprint(chunk.Text),
				Text:        chunk.Text,
			})
		}
	}
	return records, nil
}
