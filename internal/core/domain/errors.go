package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates bad caller input: a blank query or
	// project identifier, or an empty document set.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the repository host rejected the
	// supplied credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the repository or ref does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransient indicates a retryable connectivity failure against
	// an external dependency. The caller decides whether to retry.
	ErrTransient = errors.New("transient failure")

	// ErrTimeout indicates an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrSchemaConflict indicates the vector collection exists with an
	// incompatible dimension or distance metric.
	ErrSchemaConflict = errors.New("schema conflict")

	// ErrRetrieval indicates a retrieval-path failure after validation
	// passed. The request boundary converts it into a server error
	// with a generic message.
	ErrRetrieval = errors.New("retrieval failed")
)

// IsRetryable reports whether the error is a transient or timeout
// failure that a caller may reasonably retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}
