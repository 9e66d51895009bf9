// Package httpapi exposes the query and ingestion entry points over
// HTTP. Ingestion is asynchronous: the handler enqueues a job and
// returns immediately; the worker does the heavy lifting.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maanavnair/synapse/internal/core/domain"
	"github.com/maanavnair/synapse/internal/core/ports/driven"
)

// QueryService answers queries against a project partition.
// Implemented by services.Answerer.
type QueryService interface {
	Answer(ctx context.Context, query, projectID string) (*domain.RetrievalResult, error)
}

// Server routes API requests to the core services.
type Server struct {
	answerer QueryService
	queue    driven.JobQueue
	log      *slog.Logger
}

// NewServer creates the API server.
func NewServer(answerer QueryService, queue driven.JobQueue, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{answerer: answerer, queue: queue, log: log}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/ingest", s.handleIngest)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

type queryRequest struct {
	Query     string `json:"query"`
	ProjectID string `json:"projectId"`
}

type queryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.answerer.Answer(r.Context(), req.Query, req.ProjectID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("query failed", "projectId", req.ProjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer query")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:  result.Answer,
		Sources: sourcePaths(result.Hits),
	})
}

type ingestRequest struct {
	ProjectID   string `json:"projectId"`
	RepoName    string `json:"repoName"`
	AccessToken string `json:"accessToken"`
}

type ingestResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	job := domain.IngestionJob{
		JobID:       uuid.NewString(),
		ProjectID:   strings.TrimSpace(req.ProjectID),
		RepoName:    strings.TrimSpace(req.RepoName),
		AccessToken: req.AccessToken,
	}
	if err := job.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		s.log.Error("encode job", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}
	if err := s.queue.Push(r.Context(), payload); err != nil {
		s.log.Error("enqueue job", "jobId", job.JobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	s.log.Info("job enqueued", "jobId", job.JobID, "projectId", job.ProjectID, "repo", job.RepoName)
	writeJSON(w, http.StatusAccepted, ingestResponse{JobID: job.JobID, Status: "queued"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sourcePaths collects the distinct file paths behind the hits,
// preserving rank order.
func sourcePaths(hits []domain.RetrievalHit) []string {
	seen := make(map[string]struct{}, len(hits))
	var paths []string
	for _, h := range hits {
		if h.Record.Path == "" {
			continue
		}
		if _, ok := seen[h.Record.Path]; ok {
			continue
		}
		seen[h.Record.Path] = struct{}{}
		paths = append(paths, h.Record.Path)
	}
	return paths
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
