package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	gh "github.com/google/go-github/v80/github"

	"github.com/maanavnair/synapse/internal/core/domain"
)

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s", e.StatusCode, e.Message)
}

// wrapError converts go-github errors into the domain error taxonomy
// so callers can match with errors.Is without importing this package's
// types.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", operation, domain.ErrUnauthorized, apiErr)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", operation, domain.ErrNotFound, apiErr)
		}
		if ghErr.Response.StatusCode >= 500 {
			return fmt.Errorf("%s: %w: %w", operation, domain.ErrTransient, apiErr)
		}
		return fmt.Errorf("%s: %w", operation, apiErr)
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%s: rate limited: %w", operation, domain.ErrTransient)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", operation, domain.ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%s: %w: %w", operation, domain.ErrTimeout, err)
		}
		return fmt.Errorf("%s: %w: %w", operation, domain.ErrTransient, err)
	}

	return fmt.Errorf("%s: %w", operation, err)
}
