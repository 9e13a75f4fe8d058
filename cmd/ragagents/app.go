package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PujaAmmineni/RAG-AGENTS/infrastructure/llm"
	"github.com/PujaAmmineni/RAG-AGENTS/infrastructure/metrics"
	"github.com/PujaAmmineni/RAG-AGENTS/infrastructure/retrieval"
	"github.com/PujaAmmineni/RAG-AGENTS/infrastructure/storage"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/application"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg      application.Config
	logger   *slog.Logger
	metrics  *metrics.PrometheusMetrics
	source   ports.DocumentSource
	pipeline *application.Pipeline
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newSource builds the configured document source.
func newSource(cfg application.StorageConfig, logger *slog.Logger) (ports.DocumentSource, error) {
	switch cfg.Type {
	case "s3":
		bucket, err := storage.NewMinioBucket(storage.S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewS3Source(bucket, storage.S3SourceConfig{
			Prefix:      cfg.Prefix,
			Concurrency: cfg.Concurrency,
			Logger:      logger,
		})
	case "local":
		return storage.NewLocalSource(cfg.Dir, cfg.Concurrency, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func newEmbedder(cfg application.EmbedderConfig, timeout time.Duration) (ports.Embedder, error) {
	switch cfg.Type {
	case "tfidf":
		return retrieval.NewTFIDFEmbedder(), nil
	case "openai", "azure":
		api, err := llm.NewOpenAIAPI(cfg.Type, llm.ClientConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
			Timeout:    timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		return retrieval.NewOpenAIEmbedder(api, retrieval.OpenAIEmbedderConfig{
			Name:       cfg.Type,
			Model:      cfg.Model,
			BatchSize:  cfg.BatchSize,
			MaxRetries: 3,
		})
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}

func newVectorStore(cfg application.VectorStoreConfig) (ports.VectorStore, error) {
	switch cfg.Type {
	case "memory":
		return retrieval.NewMemoryStore(), nil
	case "qdrant":
		return retrieval.NewQdrantStore(retrieval.QdrantConfig{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.Type)
	}
}

func newLLMClient(cfg application.LLMConfig, pm ports.MetricsCollector) (*llm.Client, error) {
	chain := llm.ChainConfig{
		Provider:          cfg.Provider,
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		BaseDelay:         cfg.BaseDelay,
		MaxDelay:          cfg.MaxDelay,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerFailures:   cfg.CircuitBreaker.MaxFailures,
		BreakerCooldown:   cfg.CircuitBreaker.Cooldown,
		Metrics:           pm,
	}
	return llm.NewClient(cfg.Provider, llm.ClientConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		APIVersion: cfg.APIVersion,
		Middleware: chain.Middleware(),
	})
}

// buildApp wires configuration into the pipeline. The completion backend
// is only required when needLLM is set, so index and info work without a
// key.
func buildApp(cfg application.Config, logger *slog.Logger, needLLM bool) (*app, error) {
	pm := metrics.NewPrometheusMetrics()

	source, err := newSource(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("document source: %w", err)
	}
	embedder, err := newEmbedder(cfg.Embedder, cfg.LLM.Timeout)
	if err != nil {
		return nil, err
	}
	store, err := newVectorStore(cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	chunker, err := retrieval.NewRecursiveChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	indexer, err := application.NewIndexer(application.IndexerDeps{
		Source:    source,
		Chunker:   chunker,
		Embedder:  embedder,
		Store:     store,
		BatchSize: cfg.Embedder.BatchSize,
		Logger:    logger,
		Metrics:   pm,
	})
	if err != nil {
		return nil, err
	}
	retriever, err := retrieval.NewRetriever(embedder, store, retrieval.RetrieverConfig{
		MinScore:        cfg.Retrieval.MinScore,
		DedupSimilarity: cfg.Retrieval.DedupSimilarity,
		CacheSize:       cfg.Retrieval.CacheSize,
		Logger:          logger,
		Metrics:         pm,
	})
	if err != nil {
		return nil, err
	}

	var client ports.LLMClient = unavailableLLM{}
	if needLLM {
		c, err := newLLMClient(cfg.LLM, pm)
		if err != nil {
			return nil, fmt.Errorf("llm client: %w", err)
		}
		client = c
	}

	opts := []application.OrchestratorOption{
		application.WithMaxRounds(cfg.Pipeline.MaxRounds),
		application.WithLogger(logger),
		application.WithMetrics(pm),
	}
	if cfg.LLM.Temperature != nil {
		opts = append(opts, application.WithTemperature(*cfg.LLM.Temperature))
	}
	if cfg.LLM.MaxTokens > 0 {
		opts = append(opts, application.WithMaxTokens(cfg.LLM.MaxTokens))
	}
	orch, err := application.NewOrchestrator(client, opts...)
	if err != nil {
		return nil, err
	}

	pipeline, err := application.NewPipeline(application.PipelineDeps{
		Retriever:    retriever,
		Orchestrator: orch,
		Indexer:      indexer,
		TopK:         cfg.Retrieval.TopK,
		Logger:       logger,
		Metrics:      pm,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, metrics: pm, source: source, pipeline: pipeline}, nil
}

// serveMetrics exposes /metrics on addr until ctx ends.
func (a *app) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// unavailableLLM stands in for the completion backend in commands that
// never call it.
type unavailableLLM struct{}

var errNoLLM = errors.New("completion backend not configured for this command")

func (unavailableLLM) Complete(context.Context, string, map[string]any) (string, error) {
	return "", errNoLLM
}
func (unavailableLLM) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }
func (unavailableLLM) GetModel() string                        { return "none" }
