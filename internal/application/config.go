package application

import (
	"time"
)

// Config is the complete configuration for the answer pipeline and the
// infrastructure it is wired to. It is passed explicitly to every
// component; nothing reads the process environment after loading.
type Config struct {
	// LLM configures the completion backend and its middleware chain.
	LLM LLMConfig `yaml:"llm" validate:"required"`
	// Embedder selects how chunks and queries are vectorized.
	Embedder EmbedderConfig `yaml:"embedder"`
	// Storage selects where documents are loaded from.
	Storage StorageConfig `yaml:"storage"`
	// Chunker controls document splitting.
	Chunker ChunkerConfig `yaml:"chunker"`
	// VectorStore selects the vector index backend.
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	// Retrieval tunes passage selection.
	Retrieval RetrievalConfig `yaml:"retrieval"`
	// Pipeline tunes the role exchange.
	Pipeline PipelineConfig `yaml:"pipeline"`
	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
	// Log configures structured logging.
	Log LogConfig `yaml:"log"`
}

// LLMConfig configures the completion backend.
type LLMConfig struct {
	// Provider is one of openai, azure, anthropic or google.
	Provider string `yaml:"provider" validate:"required,oneof=openai azure anthropic google"`
	// Model is the model name, or the deployment name for azure.
	Model string `yaml:"model" validate:"required,min=1,max=200"`
	// APIKeyEnv names the variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env" validate:"required,envname"`
	// BaseURL overrides the provider endpoint. Required for azure.
	BaseURL string `yaml:"base_url" validate:"required_if=Provider azure,omitempty,url"`
	// APIVersion is the azure API version.
	APIVersion string `yaml:"api_version" validate:"required_if=Provider azure"`
	// Temperature is sent with every completion request.
	Temperature *float64 `yaml:"temperature" validate:"omitempty,min=0,max=2"`
	// MaxTokens caps each completion.
	MaxTokens int `yaml:"max_tokens" validate:"omitempty,min=1,max=100000"`
	// Timeout bounds each completion attempt.
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`
	// MaxRetries is the number of retries after a failed attempt.
	MaxRetries int `yaml:"max_retries" validate:"min=0,max=10"`
	// BaseDelay is the initial retry backoff.
	BaseDelay time.Duration `yaml:"base_delay" validate:"min=0"`
	// MaxDelay caps the retry backoff.
	MaxDelay time.Duration `yaml:"max_delay" validate:"min=0"`
	// RequestsPerSecond limits completion throughput. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`
	// Burst is the rate limiter bucket size.
	Burst int `yaml:"burst" validate:"min=0"`
	// CircuitBreaker trips after repeated failures.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`

	// APIKey is resolved from APIKeyEnv at load time.
	APIKey string `yaml:"-"`
}

// CircuitBreakerConfig configures the completion circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens the circuit.
	// Zero disables the breaker.
	MaxFailures int `yaml:"max_failures" validate:"min=0,max=100"`
	// Cooldown is how long the circuit stays open.
	Cooldown time.Duration `yaml:"cooldown" validate:"min=0"`
}

// EmbedderConfig selects the embedder.
type EmbedderConfig struct {
	// Type is tfidf, openai or azure.
	Type       string `yaml:"type" validate:"required,oneof=tfidf openai azure"`
	Model      string `yaml:"model" validate:"required_unless=Type tfidf"`
	APIKeyEnv  string `yaml:"api_key_env" validate:"required_unless=Type tfidf,omitempty,envname"`
	BaseURL    string `yaml:"base_url" validate:"required_if=Type azure,omitempty,url"`
	APIVersion string `yaml:"api_version" validate:"required_if=Type azure"`
	BatchSize  int    `yaml:"batch_size" validate:"min=1,max=2048"`

	APIKey string `yaml:"-"`
}

// StorageConfig selects the document source.
type StorageConfig struct {
	// Type is s3 for S3-compatible blob storage or local for a directory.
	Type string `yaml:"type" validate:"required,oneof=s3 local"`
	// Endpoint is the blob storage host, without scheme.
	Endpoint string `yaml:"endpoint" validate:"required_if=Type s3"`
	Region   string `yaml:"region"`
	// Bucket is the container holding the documents.
	Bucket string `yaml:"bucket" validate:"required_if=Type s3"`
	// Prefix restricts listing to keys under this prefix.
	Prefix       string `yaml:"prefix"`
	UseSSL       bool   `yaml:"use_ssl"`
	AccessKeyEnv string `yaml:"access_key_env" validate:"required_if=Type s3,omitempty,envname"`
	SecretKeyEnv string `yaml:"secret_key_env" validate:"required_if=Type s3,omitempty,envname"`
	// Dir is the document directory for the local source.
	Dir string `yaml:"dir" validate:"required_if=Type local"`
	// Concurrency bounds parallel downloads and extraction.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=64"`

	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// ChunkerConfig controls document splitting.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size" validate:"min=50,max=100000"`
	ChunkOverlap int `yaml:"chunk_overlap" validate:"min=0,ltfield=ChunkSize"`
}

// VectorStoreConfig selects the vector index.
type VectorStoreConfig struct {
	// Type is memory or qdrant.
	Type   string       `yaml:"type" validate:"required,oneof=memory qdrant"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig addresses a Qdrant collection over REST.
type QdrantConfig struct {
	URL        string `yaml:"url" validate:"omitempty,url"`
	Collection string `yaml:"collection"`
	APIKeyEnv  string `yaml:"api_key_env" validate:"omitempty,envname"`

	APIKey string `yaml:"-"`
}

// RetrievalConfig tunes passage selection.
type RetrievalConfig struct {
	// TopK is the number of passages handed to the orchestrator.
	TopK int `yaml:"top_k" validate:"min=1,max=50"`
	// MinScore drops passages scoring below it. Zero keeps everything.
	MinScore float64 `yaml:"min_score" validate:"min=0,max=1"`
	// DedupSimilarity drops passages this similar to a better-ranked one.
	// Zero disables deduplication.
	DedupSimilarity float64 `yaml:"dedup_similarity" validate:"min=0,max=1"`
	// CacheSize is the query embedding cache capacity.
	CacheSize int `yaml:"cache_size" validate:"min=0,max=100000"`
}

// PipelineConfig tunes the role exchange.
type PipelineConfig struct {
	// MaxRounds bounds completion calls across the whole collaborative
	// exchange, not per role.
	MaxRounds int `yaml:"max_rounds" validate:"min=1,max=30"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default values applied to unset fields.
const (
	DefaultTemperature  = 0.7
	DefaultMaxRounds    = 3
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
	DefaultBucket       = "content"
)

// DefaultConfig returns a configuration that runs fully offline except for
// the completion backend: local documents, TF-IDF embeddings, in-memory
// index.
func DefaultConfig() Config {
	var cfg Config
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	cfg.Storage.Type = "local"
	cfg.Storage.Dir = "documents"
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero values with defaults. Fields that are valid at
// zero, such as MinScore, are left alone.
func applyDefaults(cfg *Config) {
	if cfg.LLM.Temperature == nil {
		t := DefaultTemperature
		cfg.LLM.Temperature = &t
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 2
	}
	if cfg.LLM.BaseDelay == 0 {
		cfg.LLM.BaseDelay = 500 * time.Millisecond
	}
	if cfg.LLM.MaxDelay == 0 {
		cfg.LLM.MaxDelay = 10 * time.Second
	}
	if cfg.LLM.RequestsPerSecond > 0 && cfg.LLM.Burst == 0 {
		cfg.LLM.Burst = 1
	}
	if cfg.LLM.CircuitBreaker.MaxFailures > 0 && cfg.LLM.CircuitBreaker.Cooldown == 0 {
		cfg.LLM.CircuitBreaker.Cooldown = 30 * time.Second
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 64
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.Type == "local" && cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "documents"
	}
	if cfg.Storage.Type == "s3" && cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = DefaultBucket
	}
	if cfg.Storage.Concurrency == 0 {
		cfg.Storage.Concurrency = 4
	}

	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = DefaultChunkSize
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = DefaultChunkOverlap
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant.URL == "" {
			cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "rag_agents"
		}
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.DedupSimilarity == 0 {
		cfg.Retrieval.DedupSimilarity = 0.95
	}
	if cfg.Retrieval.CacheSize == 0 {
		cfg.Retrieval.CacheSize = 256
	}

	if cfg.Pipeline.MaxRounds == 0 {
		cfg.Pipeline.MaxRounds = DefaultMaxRounds
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
