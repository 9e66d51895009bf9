// Package domain contains the core types of the ingestion and retrieval
// pipeline: documents pulled from a repository, the chunks they are split
// into, the vector records stored in the index, and the queued ingestion
// jobs consumed by the background worker.
package domain
