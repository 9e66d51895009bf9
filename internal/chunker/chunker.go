// Package chunker splits documents into overlapping fixed-size text
// windows, preferring structural boundaries (blank lines, line breaks,
// spaces) over raw character cuts.
package chunker

import (
	"github.com/maanavnair/synapse/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
// between consecutive chunks of the same document.
const DefaultChunkOverlap = 200

// Chunker splits document content into overlapping chunks. Splitting is
// deterministic: the same content and parameters always produce the
// same boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay strictly below the chunk size.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks a single document, carrying its path, revision and
// source URL onto every chunk.
func (c *Chunker) Split(doc domain.Document) []domain.Chunk {
	texts := c.SplitText(doc.Content)
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			Text:      text,
			Ordinal:   i,
			Path:      doc.Path,
			Revision:  doc.Revision,
			SourceURL: doc.SourceURL,
		})
	}
	return chunks
}

// SplitAll chunks a sequence of documents in order. Each document is
// split independently; boundaries never depend on other documents.
func (c *Chunker) SplitAll(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.Split(doc)...)
	}
	return chunks
}

// SplitText splits raw text into overlapping windows of at most
// chunkSize characters. Each window after the first starts exactly
// overlap characters before the previous window's end, so dropping the
// first overlap characters of every chunk but the first reconstructs
// the input.
//
// Character means rune here: cuts never land inside a multi-byte
// UTF-8 sequence.
func (c *Chunker) SplitText(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	if n <= c.chunkSize {
		return []string{text}
	}

	var out []string
	start := 0
	for {
		end := start + c.chunkSize
		if end >= n {
			out = append(out, string(runes[start:]))
			return out
		}

		cut := c.boundary(runes, start, end)
		out = append(out, string(runes[start:cut]))

		next := cut - c.overlap
		if next <= start {
			// Degenerate parameters; give up on overlap rather than loop.
			next = cut
		}
		start = next
	}
}

// boundary picks the cut position for a window [start, end). It scans
// backwards for a blank line, then a line break, then a space, and
// keeps the separator in the current chunk. Cuts below half a window
// are rejected so boundary snapping cannot produce tiny chunks; when
// no boundary qualifies the window is cut at full width.
func (c *Chunker) boundary(runes []rune, start, end int) int {
	min := start + c.chunkSize/2
	if min <= start {
		min = start + 1
	}

	// Blank line: cut after "\n\n".
	for i := end; i > min; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}
	// Line break: cut after "\n".
	for i := end; i > min; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	// Word boundary: cut after a space.
	for i := end; i > min; i-- {
		if runes[i-1] == ' ' {
			return i
		}
	}
	return end
}
