package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The same model identity must be used at ingestion time and at query
// time; a dimension mismatch between the two is a configuration error
// the pipeline detects before the first write.
type EmbeddingService interface {
	// EmbedBatch generates embeddings for the given texts. The result
	// has the same length and order as the input. Batching is the
	// caller's responsibility.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 1536, 3072).
	// This must match the vector collection's configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
