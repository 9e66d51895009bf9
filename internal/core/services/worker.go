package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/maanavnair/synapse/internal/core/domain"
	"github.com/maanavnair/synapse/internal/core/ports/driven"
	"github.com/maanavnair/synapse/internal/metrics"
)

// DefaultPollInterval is the pause between queue polls when the queue
// is empty and after a failed job.
const DefaultPollInterval = 2 * time.Second

// JobRunner executes one ingestion job. Implemented by Ingestor;
// declared as an interface so the worker can be tested in isolation.
type JobRunner interface {
	Ingest(ctx context.Context, job domain.IngestionJob) (int, error)
}

// Worker drains the job queue. It polls rather than blocks, matching
// the queue contract, and survives every per-job failure: a malformed
// or failing job is logged and discarded, never retried, and never
// stops the loop.
type Worker struct {
	queue    driven.JobQueue
	runner   JobRunner
	log      *slog.Logger
	interval time.Duration
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithPollInterval sets the empty-queue and post-failure pause.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWorker creates the queue worker.
func NewWorker(queue driven.JobQueue, runner JobRunner, log *slog.Logger, opts ...WorkerOption) *Worker {
	if log == nil {
		log = slog.Default()
	}
	w := &Worker{
		queue:    queue,
		runner:   runner,
		log:      log,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes jobs until ctx is cancelled. It returns ctx.Err() on
// shutdown; no other condition ends the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started", "pollInterval", w.interval)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, ok, err := w.queue.Pop(ctx)
		if err != nil {
			w.log.Error("queue pop failed", "error", err)
			if err := w.sleep(ctx); err != nil {
				return err
			}
			continue
		}
		if !ok {
			if err := w.sleep(ctx); err != nil {
				return err
			}
			continue
		}

		if err := w.process(ctx, payload); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.JobsFailed.Inc()
			if err := w.sleep(ctx); err != nil {
				return err
			}
		}
	}
}

// process decodes and runs one job. Errors are logged here and
// reported only so the loop knows to back off.
func (w *Worker) process(ctx context.Context, payload []byte) error {
	var job domain.IngestionJob
	if err := json.Unmarshal(payload, &job); err != nil {
		w.log.Error("discarding undecodable job payload", "error", err)
		return err
	}
	if err := job.Validate(); err != nil {
		w.log.Error("discarding invalid job", "jobId", job.JobID, "error", err)
		return err
	}

	log := w.log.With("jobId", job.JobID, "projectId", job.ProjectID, "repo", job.RepoName)
	log.Info("processing job")

	count, err := w.runner.Ingest(ctx, job)
	if err != nil {
		log.Error("job failed", "error", err, "retryable", domain.IsRetryable(err))
		return err
	}

	metrics.JobsProcessed.Inc()
	log.Info("job complete", "records", count)
	return nil
}

// sleep pauses for the poll interval unless ctx ends first.
func (w *Worker) sleep(ctx context.Context) error {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
