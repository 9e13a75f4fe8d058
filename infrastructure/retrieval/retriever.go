package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// candidateFactor widens the store query so filtering still leaves K
// passages in the common case.
const candidateFactor = 2

// RetrieverConfig tunes passage selection.
type RetrieverConfig struct {
	// MinScore drops passages scoring below it.
	MinScore float64
	// DedupSimilarity drops a passage whose normalized edit similarity to a
	// better-ranked passage reaches it. Zero disables deduplication.
	DedupSimilarity float64
	// CacheSize bounds the query embedding cache. Zero disables caching.
	CacheSize int
	Logger    *slog.Logger
	Metrics   ports.MetricsCollector
}

// Retriever embeds a query, searches the vector store and filters the
// candidates down to the requested number of passages.
type Retriever struct {
	embedder ports.Embedder
	store    ports.VectorStore
	cfg      RetrieverConfig
	cache    *lru.Cache[string, []float32]
	logger   *slog.Logger
	metrics  ports.MetricsCollector
}

var _ ports.Retriever = (*Retriever)(nil)

// corpusDependent is implemented by embedders whose vectors change when
// the corpus does.
type corpusDependent interface {
	CorpusDependent() bool
}

func NewRetriever(embedder ports.Embedder, store ports.VectorStore, cfg RetrieverConfig) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("retriever: embedder is required")
	}
	if store == nil {
		return nil, errors.New("retriever: vector store is required")
	}
	if cfg.DedupSimilarity < 0 || cfg.DedupSimilarity > 1 {
		return nil, fmt.Errorf("retriever: dedup similarity must be in [0, 1], got %v", cfg.DedupSimilarity)
	}

	r := &Retriever{embedder: embedder, store: store, cfg: cfg, logger: cfg.Logger, metrics: cfg.Metrics}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = ports.NopMetrics{}
	}

	cd, ok := embedder.(corpusDependent)
	if cfg.CacheSize > 0 && !(ok && cd.CorpusDependent()) {
		cache, err := lru.New[string, []float32](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("retriever: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Search returns at most topK passages for query, ranked by descending
// score. Searching an empty index fails with domain.ErrEmptyIndex.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.Passage, error) {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	start := time.Now()

	n, err := r.store.Count(ctx)
	if err != nil {
		return nil, ports.NewRetrievalError("count", query, err)
	}
	if n == 0 {
		return nil, ports.NewRetrievalError("count", query, domain.ErrEmptyIndex)
	}

	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, ports.NewRetrievalError("embed", query, err)
	}

	candidates, err := r.store.Search(ctx, vec, topK*candidateFactor)
	if err != nil {
		return nil, ports.NewRetrievalError("search", query, err)
	}

	passages := r.filter(candidates, topK)
	r.metrics.RecordLatency("retrieve", time.Since(start), map[string]string{"embedder": r.embedder.Name()})
	r.logger.Debug("retrieved passages",
		slog.Int("candidates", len(candidates)),
		slog.Int("passages", len(passages)),
		slog.Duration("elapsed", time.Since(start)))
	return passages, nil
}

// Purge empties the query embedding cache.
func (r *Retriever) Purge() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.cache != nil {
		if vec, ok := r.cache.Get(query); ok {
			r.metrics.RecordCounter("rag_embedding_cache_total", 1, map[string]string{"result": "hit"})
			return vec, nil
		}
		r.metrics.RecordCounter("rag_embedding_cache_total", 1, map[string]string{"result": "miss"})
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}
	if r.cache != nil {
		r.cache.Add(query, vecs[0])
	}
	return vecs[0], nil
}

func (r *Retriever) filter(candidates []domain.Passage, topK int) []domain.Passage {
	out := make([]domain.Passage, 0, topK)
	for _, p := range candidates {
		if len(out) == topK {
			break
		}
		if p.Score < r.cfg.MinScore {
			continue
		}
		if r.duplicate(p, out) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *Retriever) duplicate(p domain.Passage, kept []domain.Passage) bool {
	if r.cfg.DedupSimilarity <= 0 {
		return false
	}
	for _, k := range kept {
		if Similarity(p.Text, k.Text) >= r.cfg.DedupSimilarity {
			return true
		}
	}
	return false
}

// Similarity is one minus the Levenshtein distance over the longer rune
// length. Two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
