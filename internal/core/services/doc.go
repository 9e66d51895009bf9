// Package services contains the core application services: the
// ingestion pipeline, the retrieval-and-answer pipeline and the
// background worker that drains the job queue. Services depend only on
// the driven ports; adapters are injected at startup.
package services
