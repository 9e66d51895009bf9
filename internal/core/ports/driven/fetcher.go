package driven

import (
	"context"

	"github.com/maanavnair/synapse/internal/core/domain"
)

// RepositoryFetcher walks a remote repository tree and returns the
// decoded text documents matching the configured source extensions.
//
// Errors distinguish rejected credentials (domain.ErrUnauthorized),
// missing repository or ref (domain.ErrNotFound) and retryable
// connectivity failures (domain.ErrTransient). The fetcher never
// retries internally; that decision belongs to the caller.
type RepositoryFetcher interface {
	// Fetch lists and reads every matching file of repo ("owner/name")
	// at the given ref, authenticating with token. Files that fail
	// UTF-8 decoding are skipped with a logged warning rather than
	// failing the whole fetch.
	Fetch(ctx context.Context, repo, ref, token string) ([]domain.Document, error)
}
