package domain

import (
	"fmt"
	"strings"
)

// IngestionJob is a queued work item produced by the request layer and
// consumed by the background worker. The wire format is UTF-8 JSON.
type IngestionJob struct {
	// JobID identifies the job for logging and tracing.
	JobID string `json:"jobId"`

	// ProjectID is the partition every resulting record is stamped with.
	ProjectID string `json:"projectId"`

	// RepoName is the repository locator in "owner/name" form.
	RepoName string `json:"repoName"`

	// AccessToken authenticates against the repository host.
	AccessToken string `json:"accessToken"`
}

// Validate reports whether the job carries the fields ingestion requires.
// A job failing validation is discarded by the worker, not retried.
func (j *IngestionJob) Validate() error {
	if strings.TrimSpace(j.ProjectID) == "" {
		return fmt.Errorf("%w: job %q missing projectId", ErrInvalidInput, j.JobID)
	}
	if strings.TrimSpace(j.RepoName) == "" {
		return fmt.Errorf("%w: job %q missing repoName", ErrInvalidInput, j.JobID)
	}
	return nil
}
