package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

type stubEmbedder struct {
	calls          int
	err            error
	corpusSpecific bool
}

func (s *stubEmbedder) Name() string                            { return "stub" }
func (s *stubEmbedder) Prepare(context.Context, []string) error { return nil }
func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type corpusStub struct{ stubEmbedder }

func (c *corpusStub) CorpusDependent() bool { return true }

type stubStore struct {
	count     int
	countErr  error
	searchErr error
	passages  []domain.Passage
	lastK     int
}

func (s *stubStore) Upsert(context.Context, []domain.Chunk, [][]float32) error { return nil }
func (s *stubStore) Count(context.Context) (int, error)                        { return s.count, s.countErr }
func (s *stubStore) Search(_ context.Context, _ []float32, k int) ([]domain.Passage, error) {
	s.lastK = k
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.passages[:min(k, len(s.passages))], nil
}

type counterSpy struct {
	ports.NopMetrics
	counters map[string]float64
}

func (c *counterSpy) RecordCounter(metric string, v float64, labels map[string]string) {
	if c.counters == nil {
		c.counters = map[string]float64{}
	}
	c.counters[metric+"/"+labels["result"]] += v
}

// TestRetriever_FiltersCandidates verifies the 2×K fetch, the score floor,
// near-duplicate removal and truncation.
func TestRetriever_FiltersCandidates(t *testing.T) {
	store := &stubStore{count: 10, passages: []domain.Passage{
		{Text: "Revenue grew 12% in Q3.", Source: "q3.pdf", Score: 0.92},
		{Text: "Revenue grew 12% in Q3!", Source: "q3-copy.pdf", Score: 0.91},
		{Text: "Churn fell to 2%.", Source: "q3.pdf", Score: 0.80},
		{Text: "Headcount was flat.", Source: "hr.pdf", Score: 0.55},
		{Text: "Office plants were watered.", Source: "misc.pdf", Score: 0.10},
		{Text: "Unrelated.", Source: "misc.pdf", Score: 0.05},
	}}
	r, err := NewRetriever(&stubEmbedder{}, store, RetrieverConfig{MinScore: 0.2, DedupSimilarity: 0.9})
	require.NoError(t, err)

	got, err := r.Search(context.Background(), "How did revenue change?", 3)

	require.NoError(t, err)
	assert.Equal(t, 6, store.lastK)
	require.Len(t, got, 3)
	assert.Equal(t, "q3.pdf", got[0].Source)
	assert.Equal(t, "Churn fell to 2%.", got[1].Text)
	assert.Equal(t, "hr.pdf", got[2].Source)
}

// TestRetriever_MinScoreCanEmptyResult verifies that filtering may leave no
// passages without failing.
func TestRetriever_MinScoreCanEmptyResult(t *testing.T) {
	store := &stubStore{count: 1, passages: []domain.Passage{{Text: "x", Score: 0.1}}}
	r, err := NewRetriever(&stubEmbedder{}, store, RetrieverConfig{MinScore: 0.5})
	require.NoError(t, err)

	got, err := r.Search(context.Background(), "q", 3)

	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestRetriever_EmptyIndex verifies the error for a search before indexing.
func TestRetriever_EmptyIndex(t *testing.T) {
	r, err := NewRetriever(&stubEmbedder{}, &stubStore{}, RetrieverConfig{})
	require.NoError(t, err)

	_, err = r.Search(context.Background(), "q", 3)

	var rerr *ports.RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "count", rerr.Stage)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
}

// TestRetriever_StageErrors verifies that failures name their stage.
func TestRetriever_StageErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		embedder *stubEmbedder
		store    *stubStore
		stage    string
	}{
		{"count", &stubEmbedder{}, &stubStore{countErr: boom}, "count"},
		{"embed", &stubEmbedder{err: boom}, &stubStore{count: 1}, "embed"},
		{"search", &stubEmbedder{}, &stubStore{count: 1, searchErr: boom}, "search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRetriever(tt.embedder, tt.store, RetrieverConfig{})
			require.NoError(t, err)

			_, err = r.Search(context.Background(), "q", 3)

			var rerr *ports.RetrievalError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.stage, rerr.Stage)
			assert.Equal(t, "q", rerr.Query)
			assert.ErrorIs(t, err, boom)
		})
	}
}

// TestRetriever_QueryCache verifies that repeated queries reuse their
// embedding and that the cache is skipped for corpus-dependent embedders.
func TestRetriever_QueryCache(t *testing.T) {
	store := &stubStore{count: 1, passages: []domain.Passage{{Text: "x", Score: 1}}}
	spy := &counterSpy{}
	emb := &stubEmbedder{}
	r, err := NewRetriever(emb, store, RetrieverConfig{CacheSize: 8, Metrics: spy})
	require.NoError(t, err)

	for range 3 {
		_, err := r.Search(context.Background(), "same question", 3)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, 2.0, spy.counters["rag_embedding_cache_total/hit"])
	assert.Equal(t, 1.0, spy.counters["rag_embedding_cache_total/miss"])

	r.Purge()
	_, err = r.Search(context.Background(), "same question", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, emb.calls)

	tfidf := &corpusStub{}
	r, err = NewRetriever(tfidf, store, RetrieverConfig{CacheSize: 8})
	require.NoError(t, err)
	for range 2 {
		_, err := r.Search(context.Background(), "same question", 3)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, tfidf.calls)
}

// TestRetriever_DefaultTopK verifies the default when topK is unset.
func TestRetriever_DefaultTopK(t *testing.T) {
	store := &stubStore{count: 1}
	r, err := NewRetriever(&stubEmbedder{}, store, RetrieverConfig{})
	require.NoError(t, err)

	_, err = r.Search(context.Background(), "q", 0)

	require.NoError(t, err)
	assert.Equal(t, 2*domain.DefaultTopK, store.lastK)
}

// TestSimilarity covers the normalized edit similarity.
func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.InDelta(t, 0.75, Similarity("abcd", "abcx"), 1e-9)
	assert.InDelta(t, 0.75, Similarity("äöüß", "äöüs"), 1e-9)
}

// TestNewRetriever_Validation verifies required collaborators.
func TestNewRetriever_Validation(t *testing.T) {
	_, err := NewRetriever(nil, &stubStore{}, RetrieverConfig{})
	assert.Error(t, err)
	_, err = NewRetriever(&stubEmbedder{}, nil, RetrieverConfig{})
	assert.Error(t, err)
	_, err = NewRetriever(&stubEmbedder{}, &stubStore{}, RetrieverConfig{DedupSimilarity: 1.5})
	assert.Error(t, err)
}
