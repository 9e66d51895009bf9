// Package metrics holds the Prometheus instruments for the ingestion
// and retrieval pipelines. Everything registers on the default
// registry and is served from the API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsProcessed counts ingestion jobs that completed successfully.
	JobsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_jobs_processed_total",
		Help: "Ingestion jobs completed successfully",
	})

	// JobsFailed counts ingestion jobs discarded after a failure.
	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_jobs_failed_total",
		Help: "Ingestion jobs discarded after an error",
	})

	// DocumentsFetched counts documents pulled from repositories.
	DocumentsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_documents_fetched_total",
		Help: "Source documents fetched from repositories",
	})

	// ChunksEmbedded counts chunks sent through the embedding model.
	ChunksEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_chunks_embedded_total",
		Help: "Chunks embedded",
	})

	// RecordsUpserted counts vector records written to the index.
	RecordsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synapse_records_upserted_total",
		Help: "Vector records upserted into the index",
	})

	// IngestDuration observes wall time per ingestion run.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "synapse_ingest_duration_seconds",
		Help:    "Duration of ingestion runs",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	// QueriesTotal counts answered queries by outcome.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_queries_total",
		Help: "Query requests by outcome",
	}, []string{"outcome"})

	// QueryDuration observes wall time per answered query.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "synapse_query_duration_seconds",
		Help:    "Duration of query answering",
		Buckets: prometheus.DefBuckets,
	})
)

// Query outcomes.
const (
	OutcomeAnswered = "answered"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeInvalid  = "invalid"
)
