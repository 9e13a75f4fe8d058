package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// EmbeddingsAPI is the subset of *openai.Client used for embeddings.
type EmbeddingsAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedderConfig configures an OpenAIEmbedder.
type OpenAIEmbedderConfig struct {
	// Name labels the embedder, typically "openai" or "azure".
	Name string
	// Model is the embedding model, or the deployment name on Azure.
	Model     string
	BatchSize int
	// MaxRetries applies to rate limiting and server errors only.
	MaxRetries int
	BaseDelay  time.Duration
}

// OpenAIEmbedder embeds text with an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	api EmbeddingsAPI
	cfg OpenAIEmbedderConfig
}

var _ ports.Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(api EmbeddingsAPI, cfg OpenAIEmbedderConfig) (*OpenAIEmbedder, error) {
	if api == nil {
		return nil, errors.New("embeddings client is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	return &OpenAIEmbedder{api: api, cfg: cfg}, nil
}

func (e *OpenAIEmbedder) Name() string { return e.cfg.Name }

func (e *OpenAIEmbedder) Prepare(context.Context, []string) error { return nil }

// Embed sends texts in batches and returns vectors in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(texts))
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(e.cfg.Model),
	}

	var resp openai.EmbeddingResponse
	var err error
	delay := e.cfg.BaseDelay
	for attempt := 0; ; attempt++ {
		resp, err = e.api.CreateEmbeddings(ctx, req)
		if err == nil || attempt >= e.cfg.MaxRetries || !retryableEmbeddingError(err) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	if err != nil {
		return nil, fmt.Errorf("%s embeddings: %w", e.cfg.Name, err)
	}

	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("%s embeddings: got %d vectors for %d inputs", e.cfg.Name, len(resp.Data), len(batch))
	}
	vecs := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(batch) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("%s embeddings: bad result index %d", e.cfg.Name, d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

func retryableEmbeddingError(err error) bool {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return false
	}
	return status == http.StatusTooManyRequests || status >= 500
}
