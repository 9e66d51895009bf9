// Package config loads the application configuration. Values come
// from three layers, lowest precedence first: built-in defaults, an
// optional TOML file, then environment variables. A .env file in the
// working directory is folded into the environment before reading it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	GitHub    GitHubConfig    `toml:"github"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Qdrant    QdrantConfig    `toml:"qdrant"`
	Queue     QueueConfig     `toml:"queue"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// GitHubConfig configures the repository fetcher.
type GitHubConfig struct {
	// Token is the fallback access token used when a job carries none.
	Token string `toml:"token"`

	// Ref is the default ref fetched when a job does not name one.
	Ref string `toml:"ref"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	BatchSize int    `toml:"batch_size"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// QdrantConfig configures the vector index.
type QdrantConfig struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
	BatchSize  int    `toml:"batch_size"`
}

// QueueConfig configures the job queue backend.
type QueueConfig struct {
	// Backend selects the queue implementation: "redis" or "sqlite".
	Backend string `toml:"backend"`

	// RedisURL is the redis:// connection string for the redis backend.
	RedisURL string `toml:"redis_url"`

	// SQLitePath is the database path for the sqlite backend.
	SQLitePath string `toml:"sqlite_path"`

	// Key is the Redis list key.
	Key string `toml:"key"`

	// PollInterval is the worker's empty-queue pause.
	PollInterval time.Duration `toml:"poll_interval"`
}

// ChunkingConfig configures document splitting.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// RetrievalConfig configures query answering.
type RetrievalConfig struct {
	TopK          int `toml:"top_k"`
	ContextBudget int `toml:"context_budget"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		GitHub:  GitHubConfig{Ref: "main"},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-large",
			BatchSize: 64,
		},
		LLM: LLMConfig{Model: "gemini-2.5-flash-lite"},
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "repo",
			BatchSize:  5,
		},
		Queue: QueueConfig{
			Backend:      "redis",
			RedisURL:     "redis://localhost:6379/0",
			SQLitePath:   "synapse-queue.db",
			Key:          "repo-ingest-queue",
			PollInterval: 2 * time.Second,
		},
		Chunking:  ChunkingConfig{Size: 1000, Overlap: 200},
		Retrieval: RetrievalConfig{TopK: 4, ContextBudget: 8000},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply; a named file that is missing is
// an error.
func Load(path string) (Config, error) {
	// Missing .env files are expected outside development.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file and default values from the environment.
func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.GitHub.Token, "GITHUB_TOKEN")
	setString(&c.GitHub.Ref, "GITHUB_REF")
	setString(&c.Embedding.APIKey, "OPENAI_API_KEY")
	setString(&c.Embedding.Model, "EMBEDDING_MODEL")
	setInt(&c.Embedding.BatchSize, "EMBEDDING_BATCH_SIZE")
	setString(&c.LLM.APIKey, "GOOGLE_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.Qdrant.URL, "QDRANT_URL")
	setString(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&c.Qdrant.Collection, "QDRANT_COLLECTION")
	setString(&c.Queue.Backend, "QUEUE_BACKEND")
	setString(&c.Queue.RedisURL, "REDIS_URL")
	setString(&c.Queue.SQLitePath, "QUEUE_SQLITE_PATH")
	setString(&c.Queue.Key, "QUEUE_KEY")
	setInt(&c.Retrieval.TopK, "RETRIEVAL_TOP_K")
	setInt(&c.Chunking.Size, "CHUNK_SIZE")
	setInt(&c.Chunking.Overlap, "CHUNK_OVERLAP")
}

func (c *Config) validate() error {
	switch c.Queue.Backend {
	case "redis", "sqlite":
	default:
		return fmt.Errorf("config: unknown queue backend %q", c.Queue.Backend)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("config: chunk overlap %d must be below chunk size %d",
			c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("config: retrieval top_k must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
