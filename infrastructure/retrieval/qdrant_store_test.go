package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

// fakeQdrant serves the handful of collection endpoints the store uses.
type fakeQdrant struct {
	mu      sync.Mutex
	exists  bool
	size    int
	points  []qdrantPoint
	apiKeys []string
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))

	const base = "/collections/docs"
	switch {
	case r.Method == http.MethodGet && r.URL.Path == base:
		if !f.exists {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"result": map[string]any{"status": "green"}})

	case r.Method == http.MethodPut && r.URL.Path == base:
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.exists = true
		f.size = body.Vectors.Size
		writeJSON(w, map[string]any{"result": true})

	case r.Method == http.MethodPut && r.URL.Path == base+"/points":
		var body struct {
			Points []qdrantPoint `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.points = append(f.points, body.Points...)
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})

	case r.Method == http.MethodPost && r.URL.Path == base+"/points/count":
		if !f.exists {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"result": map[string]any{"count": len(f.points)}})

	case r.Method == http.MethodPost && r.URL.Path == base+"/points/search":
		var body struct {
			Limit int `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		var result []map[string]any
		for i, p := range f.points {
			if i == body.Limit {
				break
			}
			result = append(result, map[string]any{"id": p.ID, "score": 0.9 - 0.1*float64(i), "payload": p.Payload})
		}
		writeJSON(w, map[string]any{"result": result})

	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusTeapot)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newQdrant(t *testing.T) (*QdrantStore, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewQdrantStore(QdrantConfig{URL: srv.URL + "/", APIKey: "qk", Collection: "docs"})
	require.NoError(t, err)
	return s, fake
}

// TestQdrantStore_CountMissingCollection verifies that a missing collection
// counts as an empty index.
func TestQdrantStore_CountMissingCollection(t *testing.T) {
	s, _ := newQdrant(t)

	n, err := s.Count(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
}

// TestQdrantStore_UpsertAndSearch verifies collection creation, stable point
// IDs, payload round trip and the api-key header.
func TestQdrantStore_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	s, fake := newQdrant(t)

	chunks := []domain.Chunk{
		{ID: "q3.pdf#0", Text: "revenue grew", Source: "q3.pdf"},
		{ID: "q3.pdf#1", Text: "churn fell", Source: "q3.pdf"},
	}
	require.NoError(t, s.Upsert(ctx, chunks, [][]float32{{1, 0, 0}, {0, 1, 0}}))

	assert.Equal(t, 3, fake.size)
	require.Len(t, fake.points, 2)
	assert.Equal(t, PointID("q3.pdf#0"), fake.points[0].ID)
	assert.Equal(t, "q3.pdf#1", fake.points[1].Payload.ChunkID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Passage{Text: "revenue grew", Source: "q3.pdf", Score: 0.9}, got[0])

	for _, k := range fake.apiKeys {
		assert.Equal(t, "qk", k)
	}
}

// TestQdrantStore_ExistingCollection verifies that an existing collection is
// not recreated.
func TestQdrantStore_ExistingCollection(t *testing.T) {
	s, fake := newQdrant(t)
	fake.exists = true
	fake.size = 7

	require.NoError(t, s.Upsert(context.Background(), []domain.Chunk{{ID: "a"}}, [][]float32{{1, 0}}))

	assert.Equal(t, 7, fake.size)
}

// TestQdrantStore_ErrorStatus verifies that server errors surface.
func TestQdrantStore_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	s, err := NewQdrantStore(QdrantConfig{URL: srv.URL, Collection: "docs"})
	require.NoError(t, err)

	_, err = s.Count(context.Background())
	assert.ErrorContains(t, err, "status 500")

	_, err = s.Search(context.Background(), []float32{1}, 3)
	assert.ErrorContains(t, err, "points/search")
}

// TestPointID verifies that point IDs are deterministic UUIDs.
func TestPointID(t *testing.T) {
	assert.Equal(t, PointID("a#0"), PointID("a#0"))
	assert.NotEqual(t, PointID("a#0"), PointID("a#1"))
	assert.Len(t, PointID("a#0"), 36)

	_, err := NewQdrantStore(QdrantConfig{Collection: "docs"})
	assert.Error(t, err)
}
