package domain

// Document is a single source file pulled from a repository.
// It lives only for the duration of an ingestion run and is never persisted.
type Document struct {
	// Path is the repository-relative file path, unique within a revision.
	Path string

	// Revision is the content-addressed identifier of the file (blob SHA).
	Revision string

	// SourceURL is a human-navigable locator for the file.
	SourceURL string

	// Content is the decoded UTF-8 text. Binary files are filtered out
	// by the fetcher before a Document is created.
	Content string
}

// Chunk is a contiguous slice of a Document's content, the unit of
// embedding and retrieval. Consecutive chunks of the same document
// overlap by a fixed number of characters.
type Chunk struct {
	// Text is the chunk content, bounded by the chunker's chunk size.
	Text string

	// Ordinal is the position of the chunk within its source document.
	Ordinal int

	// Path is the owning document's repository-relative path.
	Path string

	// Revision is the owning document's revision.
	Revision string

	// SourceURL is the owning document's locator.
	SourceURL string
}
