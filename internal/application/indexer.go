package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// IndexStats summarizes one index build.
type IndexStats struct {
	Documents int
	Chunks    int
	Embedder  string
	Elapsed   time.Duration
}

// Indexer loads documents, splits them and writes their vectors to a store.
type Indexer struct {
	source    ports.DocumentSource
	chunker   ports.Chunker
	embedder  ports.Embedder
	store     ports.VectorStore
	batchSize int
	logger    *slog.Logger
	metrics   ports.MetricsCollector
}

// IndexerDeps lists the collaborators of an Indexer.
type IndexerDeps struct {
	Source    ports.DocumentSource
	Chunker   ports.Chunker
	Embedder  ports.Embedder
	Store     ports.VectorStore
	BatchSize int
	Logger    *slog.Logger
	Metrics   ports.MetricsCollector
}

// NewIndexer validates deps and returns an Indexer.
func NewIndexer(deps IndexerDeps) (*Indexer, error) {
	switch {
	case deps.Source == nil:
		return nil, fmt.Errorf("indexer: document source is required")
	case deps.Chunker == nil:
		return nil, fmt.Errorf("indexer: chunker is required")
	case deps.Embedder == nil:
		return nil, fmt.Errorf("indexer: embedder is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("indexer: vector store is required")
	}

	idx := &Indexer{
		source:    deps.Source,
		chunker:   deps.Chunker,
		embedder:  deps.Embedder,
		store:     deps.Store,
		batchSize: deps.BatchSize,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	if idx.batchSize <= 0 {
		idx.batchSize = 64
	}
	if idx.logger == nil {
		idx.logger = slog.Default()
	}
	if idx.metrics == nil {
		idx.metrics = ports.NopMetrics{}
	}
	return idx, nil
}

// Build indexes every document in the source. It returns
// domain.ErrNoDocuments when the source yields nothing to index.
func (x *Indexer) Build(ctx context.Context) (IndexStats, error) {
	start := time.Now()

	docs, err := x.source.Load(ctx)
	if err != nil {
		return IndexStats{}, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return IndexStats{}, domain.ErrNoDocuments
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, x.chunker.Split(doc)...)
	}
	if len(chunks) == 0 {
		return IndexStats{}, fmt.Errorf("%w: documents contain no text", domain.ErrNoDocuments)
	}
	x.logger.Info("split documents",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", len(chunks)))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if err := x.embedder.Prepare(ctx, texts); err != nil {
		return IndexStats{}, fmt.Errorf("prepare embedder: %w", err)
	}

	for lo := 0; lo < len(chunks); lo += x.batchSize {
		hi := min(lo+x.batchSize, len(chunks))
		vectors, err := x.embedder.Embed(ctx, texts[lo:hi])
		if err != nil {
			return IndexStats{}, fmt.Errorf("embed chunks %d-%d: %w", lo, hi, err)
		}
		if err := x.store.Upsert(ctx, chunks[lo:hi], vectors); err != nil {
			return IndexStats{}, fmt.Errorf("upsert chunks %d-%d: %w", lo, hi, err)
		}
	}

	stats := IndexStats{
		Documents: len(docs),
		Chunks:    len(chunks),
		Embedder:  x.embedder.Name(),
		Elapsed:   time.Since(start),
	}
	x.metrics.RecordGauge("rag_index_chunks", float64(stats.Chunks), map[string]string{"embedder": stats.Embedder})
	x.metrics.RecordLatency("index_build", stats.Elapsed, map[string]string{"embedder": stats.Embedder})
	x.logger.Info("index built",
		slog.Int("documents", stats.Documents),
		slog.Int("chunks", stats.Chunks),
		slog.String("embedder", stats.Embedder),
		slog.Duration("elapsed", stats.Elapsed))
	return stats, nil
}
