// Package qdrant provides a VectorIndex adapter backed by Qdrant's
// REST API. The collection holds one record per chunk with the project
// identifier as a keyword payload field, indexed so filtered searches
// stay cheap.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/maanavnair/synapse/internal/core/domain"
	"github.com/maanavnair/synapse/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:6333"
	DefaultCollection = "repo"
	DefaultTimeout    = 60 * time.Second

	// distanceCosine is the only distance metric this deployment uses.
	distanceCosine = "Cosine"

	// projectIDField is the payload field carrying the partition key.
	projectIDField = "projectId"
)

// Config holds connection details for a Qdrant deployment.
type Config struct {
	// BaseURL is the HTTP endpoint (default http://localhost:6333).
	BaseURL string

	// APIKey is sent as the api-key header when non-empty.
	APIKey string

	// Collection is the collection name (default "repo").
	Collection string

	// Timeout bounds each HTTP request (default 60s).
	Timeout time.Duration
}

// Store is a minimal REST client to Qdrant.
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
	log        *slog.Logger
}

// New creates a Qdrant-backed vector index.
func New(cfg Config, log *slog.Logger) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// Collection returns the collection name the store operates on.
func (s *Store) Collection() string { return s.collection }

// envelope is Qdrant's response wrapper.
type envelope[T any] struct {
	Status json.RawMessage `json:"status"`
	Result T               `json:"result"`
}

// statusError extracts the error message from a status payload, which
// is either the string "ok" or {"error": "..."}.
func statusError(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] == '"' {
		return ""
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return obj.Error
}

// collectionInfo is the subset of the collection description we read.
type collectionInfo struct {
	Config struct {
		Params struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
	PayloadSchema map[string]json.RawMessage `json:"payload_schema"`
}

// EnsureCollection creates the collection with the given dimension and
// cosine distance if it does not exist. An existing collection with a
// matching configuration is a no-op; a mismatch fails with
// domain.ErrSchemaConflict.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", domain.ErrInvalidInput, dimension)
	}

	info, found, err := s.describeCollection(ctx)
	if err != nil {
		return err
	}
	if found {
		got := info.Config.Params.Vectors
		if got.Size != dimension || !strings.EqualFold(got.Distance, distanceCosine) {
			return fmt.Errorf("%w: collection %q has size=%d distance=%s, want size=%d distance=%s",
				domain.ErrSchemaConflict, s.collection, got.Size, got.Distance, dimension, distanceCosine)
		}
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": distanceCosine,
		},
	}
	err = s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists") {
		// Lost a creation race; the collection is there now.
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Info("created collection", "collection", s.collection, "dimension", dimension)
	return nil
}

// EnsureProjectIndex creates the keyword payload index on the project
// identifier if the collection's payload schema does not already have
// one. Must run before the first filtered search is served.
func (s *Store) EnsureProjectIndex(ctx context.Context) error {
	info, found, err := s.describeCollection(ctx)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("ensure project index: collection %q: %w", s.collection, domain.ErrNotFound)
	}
	if _, ok := info.PayloadSchema[projectIDField]; ok {
		return nil
	}

	body := map[string]any{
		"field_name":   projectIDField,
		"field_schema": "keyword",
	}
	if err := s.do(ctx, http.MethodPut, s.collectionPath("/index"), body, nil); err != nil {
		return err
	}

	s.log.Info("created payload index", "collection", s.collection, "field", projectIDField)
	return nil
}

// UpsertBatch writes a batch of records. The ?wait=true flag makes the
// write visible before the call returns, so a successful batch is
// immediately searchable.
func (s *Store) UpsertBatch(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]map[string]any, len(records))
	for i, rec := range records {
		if rec.ProjectID == "" {
			return fmt.Errorf("%w: record %s has empty projectId", domain.ErrInvalidInput, rec.ID)
		}
		points[i] = map[string]any{
			"id":     rec.ID,
			"vector": rec.Vector,
			"payload": map[string]any{
				projectIDField: rec.ProjectID,
				"path":         rec.Path,
				"revision":     rec.Revision,
				"sourceUrl":    rec.SourceURL,
				"contentHash":  rec.ContentHash,
				"text":         rec.Text,
			},
		}
	}

	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil)
}

// searchHit is a single scored point from /points/search.
type searchHit struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// Search returns the topK nearest records restricted to projectID.
func (s *Store) Search(ctx context.Context, vector []float32, projectID string, topK int) ([]domain.RetrievalHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   projectIDField,
					"match": map[string]any{"value": projectID},
				},
			},
		},
	}

	var resp envelope[[]searchHit]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), body, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.RetrievalHit, 0, len(resp.Result))
	for _, h := range resp.Result {
		var id string
		_ = json.Unmarshal(h.ID, &id)
		hits = append(hits, domain.RetrievalHit{
			Score: h.Score,
			Record: domain.VectorRecord{
				ID:          id,
				ProjectID:   stringField(h.Payload, projectIDField),
				Path:        stringField(h.Payload, "path"),
				Revision:    stringField(h.Payload, "revision"),
				SourceURL:   stringField(h.Payload, "sourceUrl"),
				ContentHash: stringField(h.Payload, "contentHash"),
				Text:        stringField(h.Payload, "text"),
			},
		})
	}

	// Qdrant returns hits ordered by score; keep the ordering stable
	// regardless of backend quirks.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// describeCollection fetches the collection description. found is
// false when the collection does not exist.
func (s *Store) describeCollection(ctx context.Context) (*collectionInfo, bool, error) {
	var resp envelope[collectionInfo]
	err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, &resp)
	if err != nil {
		var httpErr *httpError
		if errors.As(err, &httpErr) && httpErr.status == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &resp.Result, true, nil
}

func (s *Store) collectionPath(suffix string) string {
	return fmt.Sprintf("/collections/%s%s", url.PathEscape(s.collection), suffix)
}

// httpError carries the status code of a non-2xx Qdrant response.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("qdrant: http %d: %s", e.status, e.body)
}

// do performs one HTTP call and decodes the response into out.
// Connectivity failures surface as domain.ErrTransient/ErrTimeout.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return wrapTransportError(method, path, err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		httpErr := &httpError{status: resp.StatusCode, body: strings.TrimSpace(string(payload))}
		if msg := decodeStatusError(payload); msg != "" {
			httpErr.body = msg
		}
		return httpErr
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("qdrant %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// decodeStatusError pulls the structured error message out of an
// envelope body, if there is one.
func decodeStatusError(payload []byte) string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(payload, &env); err != nil {
		return ""
	}
	return statusError(env.Status)
}

// wrapTransportError maps transport failures onto the domain taxonomy.
func wrapTransportError(method, path string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("qdrant %s %s: %w: %w", method, path, domain.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("qdrant %s %s: %w: %w", method, path, domain.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("qdrant %s %s: %w: %w", method, path, domain.ErrTransient, err)
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
