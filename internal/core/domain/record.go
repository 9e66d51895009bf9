package domain

// VectorRecord is the unit stored in the vector index. Records are
// created in batches during ingestion and never updated in place.
type VectorRecord struct {
	// ID is a globally unique identifier generated at write time.
	// It is not derived from content, so re-ingesting a project adds
	// new records rather than replacing existing ones.
	ID string

	// Vector is the embedding of Text. Its length must match the
	// collection's declared dimension.
	Vector []float32

	// ProjectID is the partition key. Every query filters on it;
	// records from different projects are never visible to each
	// other's searches.
	ProjectID string

	// Path is the source file's repository-relative path.
	Path string

	// Revision is the source file's revision.
	Revision string

	// SourceURL is the source file's human-navigable locator.
	SourceURL string

	// ContentHash is the fingerprint of Text, stored for future
	// dedup and change detection.
	ContentHash string

	// Text is the verbatim chunk text, kept so context can be
	// reconstructed at query time.
	Text string
}

// RetrievalHit is a single similarity-search result.
type RetrievalHit struct {
	// Record is the matched vector record, hydrated from the index payload.
	Record VectorRecord

	// Score is the similarity score under the collection's distance
	// metric, higher is closer.
	Score float64
}

// RetrievalResult is the ephemeral outcome of answering a query:
// the ranked hits that built the context plus the synthesized answer.
type RetrievalResult struct {
	Hits   []RetrievalHit
	Answer string
}
