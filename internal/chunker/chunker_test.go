package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maanavnair/synapse/internal/core/domain"
)

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultChunkSize, c.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, c.Overlap())
}

func TestNew_ClampsExcessiveOverlap(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(100))
	assert.Equal(t, 25, c.Overlap())
}

func TestSplitText_Empty(t *testing.T) {
	assert.Nil(t, New().SplitText(""))
}

func TestSplitText_SingleChunkWhenSmall(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	chunks := c.SplitText("short content")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short content", chunks[0])
}

func TestSplitText_RespectsChunkSize(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(10))
	text := strings.Repeat("abcde ", 100)

	for _, chunk := range c.SplitText(text) {
		assert.LessOrEqual(t, len([]rune(chunk)), 50)
	}
}

func TestSplitText_OverlapBetweenNeighbours(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(10))
	text := strings.Repeat("x", 200)

	chunks := c.SplitText(text)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-10:])
		head := string(cur[:10])
		assert.Equal(t, tail, head, "chunks %d and %d must share the overlap", i-1, i)
	}
}

func TestSplitText_Reconstruction(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain prose", strings.Repeat("the quick brown fox jumps over the lazy dog ", 60)},
		{"source code", strings.Repeat("func handle(w http.ResponseWriter, r *http.Request) {\n\treturn\n}\n\n", 40)},
		{"no boundaries at all", strings.Repeat("z", 3141)},
		{"unicode", strings.Repeat("héllo wörld naïve façade ", 120)},
	}

	c := New(WithChunkSize(200), WithOverlap(40))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := c.SplitText(tt.text)
			require.NotEmpty(t, chunks)

			var b strings.Builder
			b.WriteString(chunks[0])
			for _, chunk := range chunks[1:] {
				runes := []rune(chunk)
				b.WriteString(string(runes[c.Overlap():]))
			}
			assert.Equal(t, tt.text, b.String())
		})
	}
}

func TestSplitText_Deterministic(t *testing.T) {
	c := New(WithChunkSize(120), WithOverlap(30))
	text := strings.Repeat("some structured\ncontent with\n\nparagraph breaks ", 50)

	first := c.SplitText(text)
	second := c.SplitText(text)
	assert.Equal(t, first, second)
}

func TestSplitText_PrefersBlankLineBoundary(t *testing.T) {
	para := strings.Repeat("a", 60) + "\n\n"
	text := strings.Repeat(para, 10)

	c := New(WithChunkSize(100), WithOverlap(0))
	chunks := c.SplitText(text)
	require.Greater(t, len(chunks), 1)

	// Every non-final chunk should end on the paragraph break rather
	// than cutting mid-paragraph at the raw 100-character limit.
	for i := 0; i < len(chunks)-1; i++ {
		assert.True(t, strings.HasSuffix(chunks[i], "\n\n"), "chunk %d should end at a blank line", i)
	}
}

func TestSplitText_FallsBackToLineBreak(t *testing.T) {
	line := strings.Repeat("b", 30) + "\n"
	text := strings.Repeat(line, 20)

	c := New(WithChunkSize(100), WithOverlap(0))
	chunks := c.SplitText(text)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "\n"))
}

func TestSplit_CarriesDocumentMetadata(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(10))
	doc := domain.Document{
		Path:      "src/main.go",
		Revision:  "abc123",
		SourceURL: "https://github.com/octo/hello/blob/main/src/main.go",
		Content:   strings.Repeat("package main\n", 30),
	}

	chunks := c.Split(doc)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
		assert.Equal(t, doc.Path, chunk.Path)
		assert.Equal(t, doc.Revision, chunk.Revision)
		assert.Equal(t, doc.SourceURL, chunk.SourceURL)
	}
}

func TestSplitAll_IndependentPerDocument(t *testing.T) {
	c := New(WithChunkSize(60), WithOverlap(10))
	docA := domain.Document{Path: "a.go", Content: strings.Repeat("alpha ", 40)}
	docB := domain.Document{Path: "b.go", Content: strings.Repeat("beta ", 40)}

	together := c.SplitAll([]domain.Document{docA, docB})
	alone := append(c.Split(docA), c.Split(docB)...)
	assert.Equal(t, alone, together)
}
