package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// QdrantConfig addresses one Qdrant collection.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// QdrantStore is a REST client for a Qdrant collection using cosine
// distance. The collection is created on the first upsert.
type QdrantStore struct {
	base       string
	apiKey     string
	collection string
	client     *http.Client

	mu      sync.Mutex
	created bool
}

var _ ports.VectorStore = (*QdrantStore)(nil)

func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &QdrantStore{
		base:       strings.TrimRight(cfg.URL, "/") + "/collections/" + url.PathEscape(cfg.Collection),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     client,
	}, nil
}

// statusError carries a non-2xx Qdrant response.
type statusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

type qdrantPayload struct {
	ChunkID string `json:"chunk_id"`
	Source  string `json:"source"`
	Text    string `json:"text"`
}

type qdrantPoint struct {
	ID      string        `json:"id"`
	Vector  []float32     `json:"vector"`
	Payload qdrantPayload `json:"payload"`
}

func (s *QdrantStore) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	points := make([]qdrantPoint, len(chunks))
	for i, c := range chunks {
		points[i] = qdrantPoint{
			ID:      PointID(c.ID),
			Vector:  vectors[i],
			Payload: qdrantPayload{ChunkID: c.ID, Source: c.Source, Text: c.Text},
		}
	}
	return s.do(ctx, http.MethodPut, "/points?wait=true", map[string]any{"points": points}, nil)
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int) ([]domain.Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64       `json:"score"`
			Payload qdrantPayload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/points/search", req, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Passage, len(resp.Result))
	for i, r := range resp.Result {
		out[i] = domain.Passage{Text: r.Payload.Text, Source: r.Payload.Source, Score: r.Score}
	}
	return out, nil
}

// Count returns the exact point count. A missing collection counts as
// empty.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, "/points/count", map[string]any{"exact": true}, &resp)
	var se *statusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// PointID derives a stable Qdrant point ID from a chunk ID, so re-indexing
// the same document overwrites its points.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

func (s *QdrantStore) ensureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return nil
	}

	err := s.do(ctx, http.MethodGet, "", nil, nil)
	var se *statusError
	switch {
	case err == nil:
	case errors.As(err, &se) && se.Status == http.StatusNotFound:
		body := map[string]any{"vectors": map[string]any{"size": dimension, "distance": "Cosine"}}
		if err := s.do(ctx, http.MethodPut, "", body, nil); err != nil {
			return fmt.Errorf("create collection %s: %w", s.collection, err)
		}
	default:
		return err
	}
	s.created = true
	return nil
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{Method: method, Path: "/collections/" + s.collection + path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
