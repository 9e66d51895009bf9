// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). The core services depend only on these
// contracts; concrete clients for GitHub, OpenAI, Gemini, Qdrant and
// Redis live under internal/adapters and internal/connectors.
package driven
