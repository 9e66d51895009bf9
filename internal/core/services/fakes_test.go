package services

import (
	"context"
	"hash/fnv"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/maanavnair/synapse/internal/core/domain"
)

// fakeFetcher returns canned documents and records the locator it was
// asked for.
type fakeFetcher struct {
	docs  []domain.Document
	err   error
	calls int

	gotRepo  string
	gotRef   string
	gotToken string
}

func (f *fakeFetcher) Fetch(_ context.Context, repo, ref, token string) ([]domain.Document, error) {
	f.calls++
	f.gotRepo, f.gotRef, f.gotToken = repo, ref, token
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

// fakeEmbedder produces deterministic pseudo-embeddings so identical
// text always maps to the identical vector.
type fakeEmbedder struct {
	dims    int
	err     error
	batches [][]string

	// dropLast makes every response one vector short.
	dropLast bool
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, slices.Clone(texts))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = embedText(text, f.Dimensions())
	}
	if f.dropLast && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int {
	if f.dims == 0 {
		return 8
	}
	return f.dims
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }

func embedText(text string, dims int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, dims)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed%1000)/1000 + 0.001
	}
	return v
}

// memIndex is an in-memory VectorIndex. Records land in a flat slice;
// Search ranks by cosine similarity within the project partition.
// Canned hits and errors override the real behaviour when set.
type memIndex struct {
	mu sync.Mutex

	dimension     int
	createCalls   int
	indexCalls    int
	records       []domain.VectorRecord
	upsertBatches [][]domain.VectorRecord

	ensureErr error
	upsertErr error
	searchErr error
	hits      []domain.RetrievalHit
	searches  int
}

func (m *memIndex) EnsureCollection(_ context.Context, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ensureErr != nil {
		return m.ensureErr
	}
	if m.createCalls == 0 {
		m.dimension = dimension
	}
	m.createCalls++
	return nil
}

func (m *memIndex) EnsureProjectIndex(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexCalls++
	return nil
}

func (m *memIndex) UpsertBatch(_ context.Context, records []domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertBatches = append(m.upsertBatches, slices.Clone(records))
	m.records = append(m.records, records...)
	return nil
}

func (m *memIndex) Search(_ context.Context, vector []float32, projectID string, topK int) ([]domain.RetrievalHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.hits != nil {
		return m.hits, nil
	}

	var hits []domain.RetrievalHit
	for _, rec := range m.records {
		if rec.ProjectID != projectID {
			continue
		}
		hits = append(hits, domain.RetrievalHit{Record: rec, Score: cosine(vector, rec.Vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fakeLLM records prompts and echoes a canned reply.
type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

// scriptedQueue feeds a fixed payload sequence to the worker, then
// reports empty. onDrained fires once when the script runs out, so a
// test can cancel the worker's context.
type scriptedQueue struct {
	mu        sync.Mutex
	payloads  [][]byte
	next      int
	popErrs   []error
	onDrained func()
	drained   bool
}

func (q *scriptedQueue) Push(_ context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
	return nil
}

func (q *scriptedQueue) Pop(_ context.Context) ([]byte, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.popErrs) > 0 {
		err := q.popErrs[0]
		q.popErrs = q.popErrs[1:]
		return nil, false, err
	}
	if q.next < len(q.payloads) {
		payload := q.payloads[q.next]
		q.next++
		return payload, true, nil
	}
	if !q.drained {
		q.drained = true
		if q.onDrained != nil {
			q.onDrained()
		}
	}
	return nil, false, nil
}

// recordingRunner captures the jobs a worker hands it.
type recordingRunner struct {
	mu   sync.Mutex
	jobs []domain.IngestionJob
	errs []error
}

func (r *recordingRunner) Ingest(_ context.Context, job domain.IngestionJob) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	return 1, nil
}

func (r *recordingRunner) seen() []domain.IngestionJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.jobs)
}
