package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maanavnair/synapse/internal/chunker"
	"github.com/maanavnair/synapse/internal/core/domain"
)

// TestPipeline_IngestThenAnswer drives the full flow through in-memory
// adapters: two projects are ingested into one index, then queries are
// answered strictly within their own partition.
func TestPipeline_IngestThenAnswer(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{}
	index := &memIndex{}
	split := chunker.New()

	ingestA := NewIngestor(&fakeFetcher{docs: []domain.Document{
		{Path: "auth/login.go", Revision: "main", Content: "func Login(user, pass string) error { return verify(user, pass) }"},
		{Path: "auth/logout.go", Revision: "main", Content: "func Logout(session string) { sessions.Drop(session) }"},
		{Path: "README.md", Revision: "main", Content: "Service A handles authentication for the platform."},
	}}, split, embedder, index, nil)
	ingestB := NewIngestor(&fakeFetcher{docs: []domain.Document{
		{Path: "billing/invoice.go", Revision: "main", Content: "func CreateInvoice(amount int) Invoice { return Invoice{Total: amount} }"},
	}}, split, embedder, index, nil)

	countA, err := ingestA.Ingest(ctx, domain.IngestionJob{JobID: "a", ProjectID: "proj-a", RepoName: "org/auth"})
	require.NoError(t, err)
	assert.Equal(t, 3, countA)

	countB, err := ingestB.Ingest(ctx, domain.IngestionJob{JobID: "b", ProjectID: "proj-b", RepoName: "org/billing"})
	require.NoError(t, err)
	assert.Equal(t, 1, countB)

	llm := &fakeLLM{reply: "Login verifies the credentials."}
	answerer := NewAnswerer(embedder, index, llm, nil)

	// Identical text embeds to the identical vector, so the login chunk
	// must rank first for its own text.
	result, err := answerer.Answer(ctx, "func Login(user, pass string) error { return verify(user, pass) }", "proj-a")
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "auth/login.go", result.Hits[0].Record.Path)
	assert.Equal(t, "Login verifies the credentials.", result.Answer)

	for _, h := range result.Hits {
		assert.Equal(t, "proj-a", h.Record.ProjectID, "hits must stay inside the queried partition")
	}

	// The same question against project B retrieves only B's records.
	result, err = answerer.Answer(ctx, "how does login work?", "proj-b")
	require.NoError(t, err)
	for _, h := range result.Hits {
		assert.Equal(t, "proj-b", h.Record.ProjectID)
	}

	// A partition with no records short-circuits without generation.
	llmCallsBefore := len(llm.prompts)
	result, err = answerer.Answer(ctx, "anything", "proj-c")
	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, result.Answer)
	assert.Len(t, llm.prompts, llmCallsBefore)
}

// TestPipeline_QueryBeforeFirstIngestion mirrors server startup: the
// index is prepared once up front, then a query arrives before any
// ingestion job has run. It must get the canned answer, not an error
// from an unprepared collection.
func TestPipeline_QueryBeforeFirstIngestion(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{}
	index := &memIndex{}

	ingestor := NewIngestor(&fakeFetcher{}, chunker.New(), embedder, index, nil)
	require.NoError(t, ingestor.Setup(ctx))
	assert.Equal(t, 1, index.createCalls)
	assert.Equal(t, 1, index.indexCalls)

	llm := &fakeLLM{reply: "unused"}
	answerer := NewAnswerer(embedder, index, llm, nil)

	result, err := answerer.Answer(ctx, "what does this repo do?", "proj-new")
	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, result.Answer)
	assert.Empty(t, llm.prompts)
}

// TestPipeline_WorkerEndToEnd runs a real Ingestor underneath the
// worker loop.
func TestPipeline_WorkerEndToEnd(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &memIndex{}
	ingestor := NewIngestor(&fakeFetcher{docs: []domain.Document{
		{Path: "main.go", Revision: "main", Content: "package main"},
	}}, chunker.New(), embedder, index, nil)

	job := domain.IngestionJob{JobID: "j1", ProjectID: "proj-a", RepoName: "octocat/hello"}
	queue := &scriptedQueue{payloads: [][]byte{encodeJob(t, job)}}
	runWorker(t, queue, ingestor)

	require.Len(t, index.records, 1)
	assert.Equal(t, "proj-a", index.records[0].ProjectID)
	assert.Equal(t, "main.go", index.records[0].Path)
}
