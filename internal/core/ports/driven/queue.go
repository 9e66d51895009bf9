package driven

import "context"

// JobQueue is a durable list of serialized ingestion jobs. Producers
// push to the head; the worker pops from the tail. Payloads are UTF-8
// JSON-encoded domain.IngestionJob records.
//
// Atomicity of Pop across competing consumers is a property of the
// backing store, not of this contract.
type JobQueue interface {
	// Push appends a job payload to the queue.
	Push(ctx context.Context, payload []byte) error

	// Pop removes and returns the next job payload. It does not block:
	// when the queue is empty it returns ok=false and a nil error.
	Pop(ctx context.Context) (payload []byte, ok bool, err error)
}
