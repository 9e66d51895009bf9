package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	gh "github.com/google/go-github/v80/github"

	"github.com/maanavnair/synapse/internal/core/domain"
	"github.com/maanavnair/synapse/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.RepositoryFetcher = (*Fetcher)(nil)

// DefaultRef is the ref used when the caller passes an empty one.
const DefaultRef = "main"

// MaxFileSize is the largest blob fetched, in bytes. Larger files are
// skipped; the blob API inlines content only up to this size anyway.
const MaxFileSize = 1 << 20

// DefaultExtensions is the source-code extension allowlist applied
// when no explicit set is configured.
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".tsx", ".jsx", ".java",
	".cpp", ".c", ".go", ".rs", ".html", ".css",
}

// gitAPI is the slice of the GitHub client the fetcher needs.
// Narrowed for testability.
type gitAPI interface {
	GetTree(ctx context.Context, owner, repo, ref string) (*gh.Tree, error)
	GetBlob(ctx context.Context, owner, repo, sha string) (*gh.Blob, error)
}

// Fetcher walks a repository tree and returns decoded text documents.
// A fresh API client is built per fetch because each ingestion job
// carries its own access token.
type Fetcher struct {
	extensions map[string]struct{}
	log        *slog.Logger

	// newClient builds the API client for a token. Swapped in tests.
	newClient func(ctx context.Context, token string) gitAPI
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithExtensions replaces the source extension allowlist.
func WithExtensions(exts []string) Option {
	return func(f *Fetcher) {
		if len(exts) == 0 {
			return
		}
		f.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			f.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFetcher creates a repository fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		log: slog.Default(),
		newClient: func(ctx context.Context, token string) gitAPI {
			return NewClient(ctx, token)
		},
	}
	WithExtensions(DefaultExtensions)(f)

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch lists and reads every matching source file of repo at ref.
// Files that are not valid UTF-8 are skipped with a warning.
func (f *Fetcher) Fetch(ctx context.Context, repo, ref, token string) ([]domain.Document, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		ref = DefaultRef
	}

	client := f.newClient(ctx, token)

	tree, err := client.GetTree(ctx, owner, name, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s@%s: %w", repo, ref, err)
	}

	docs := make([]domain.Document, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if !f.matchesExtension(path) {
			continue
		}
		if entry.GetSize() > MaxFileSize {
			f.log.Warn("skipping oversized file", "repo", repo, "path", path, "size", entry.GetSize())
			continue
		}

		content, err := f.blobContent(ctx, client, owner, name, entry.GetSHA())
		if err != nil {
			return nil, fmt.Errorf("fetch %s@%s: %s: %w", repo, ref, path, err)
		}
		if !utf8.Valid(content) {
			f.log.Warn("skipping non-UTF-8 file", "repo", repo, "path", path)
			continue
		}

		docs = append(docs, domain.Document{
			Path:      path,
			Revision:  entry.GetSHA(),
			SourceURL: fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", owner, name, ref, path),
			Content:   string(content),
		})
	}

	f.log.Info("fetched repository", "repo", repo, "ref", ref, "documents", len(docs))
	return docs, nil
}

// blobContent fetches and decodes a single blob.
func (f *Fetcher) blobContent(ctx context.Context, client gitAPI, owner, repo, sha string) ([]byte, error) {
	blob, err := client.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, err
	}

	if blob.GetEncoding() == "base64" {
		raw := strings.ReplaceAll(blob.GetContent(), "\n", "")
		return base64.StdEncoding.DecodeString(raw)
	}
	return []byte(blob.GetContent()), nil
}

// matchesExtension reports whether the path carries an allowed
// source-code extension.
func (f *Fetcher) matchesExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := f.extensions[ext]
	return ok
}

// splitRepo parses an "owner/name" locator.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(repo), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: repository locator %q is not owner/name", domain.ErrInvalidInput, repo)
	}
	return parts[0], parts[1], nil
}
