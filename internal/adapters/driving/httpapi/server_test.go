package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maanavnair/synapse/internal/core/domain"
)

type fakeAnswerer struct {
	result *domain.RetrievalResult
	err    error

	gotQuery   string
	gotProject string
}

func (f *fakeAnswerer) Answer(_ context.Context, query, projectID string) (*domain.RetrievalResult, error) {
	f.gotQuery, f.gotProject = query, projectID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeQueue struct {
	mu       sync.Mutex
	payloads [][]byte
	pushErr  error
}

func (f *fakeQueue) Push(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeQueue) Pop(_ context.Context) ([]byte, bool, error) {
	return nil, false, nil
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestQuery_ReturnsAnswerAndSources(t *testing.T) {
	answerer := &fakeAnswerer{result: &domain.RetrievalResult{
		Answer: "It uses JWT.",
		Hits: []domain.RetrievalHit{
			{Record: domain.VectorRecord{Path: "auth/jwt.go"}},
			{Record: domain.VectorRecord{Path: "auth/jwt.go"}},
			{Record: domain.VectorRecord{Path: "auth/middleware.go"}},
		},
	}}
	srv := NewServer(answerer, &fakeQueue{}, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/query",
		`{"query":"how does auth work?","projectId":"proj-a"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "It uses JWT.", resp.Answer)
	assert.Equal(t, []string{"auth/jwt.go", "auth/middleware.go"}, resp.Sources)
	assert.Equal(t, "how does auth work?", answerer.gotQuery)
	assert.Equal(t, "proj-a", answerer.gotProject)
}

func TestQuery_ValidationErrorIs400(t *testing.T) {
	answerer := &fakeAnswerer{err: domain.ErrInvalidInput}
	srv := NewServer(answerer, &fakeQueue{}, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/query", `{"query":"","projectId":"p"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_InternalErrorIsOpaque(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("qdrant exploded at 10.0.0.3:6333")}
	srv := NewServer(answerer, &fakeQueue{}, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/query", `{"query":"q","projectId":"p"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3", "internal details must not leak to clients")
}

func TestQuery_MalformedBody(t *testing.T) {
	srv := NewServer(&fakeAnswerer{}, &fakeQueue{}, nil)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/query", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngest_EnqueuesJob(t *testing.T) {
	queue := &fakeQueue{}
	srv := NewServer(&fakeAnswerer{}, queue, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/ingest",
		`{"projectId":"proj-a","repoName":"octocat/hello","accessToken":"tok"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "queued", resp.Status)

	require.Len(t, queue.payloads, 1)
	var job domain.IngestionJob
	require.NoError(t, json.Unmarshal(queue.payloads[0], &job))
	assert.Equal(t, resp.JobID, job.JobID)
	assert.Equal(t, "proj-a", job.ProjectID)
	assert.Equal(t, "octocat/hello", job.RepoName)
	assert.Equal(t, "tok", job.AccessToken)
}

func TestIngest_RejectsIncompleteJob(t *testing.T) {
	queue := &fakeQueue{}
	srv := NewServer(&fakeAnswerer{}, queue, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/ingest", `{"projectId":"proj-a"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, queue.payloads)
}

func TestIngest_QueueFailureIs500(t *testing.T) {
	queue := &fakeQueue{pushErr: domain.ErrTransient}
	srv := NewServer(&fakeAnswerer{}, queue, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/ingest",
		`{"projectId":"proj-a","repoName":"octocat/hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := NewServer(&fakeAnswerer{}, &fakeQueue{}, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer(&fakeAnswerer{}, &fakeQueue{}, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
