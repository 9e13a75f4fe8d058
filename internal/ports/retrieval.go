package ports

import (
	"context"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

// Retriever is the Context Retriever consumed by the answer pipeline.
type Retriever interface {
	// Search returns at most topK passages ranked by descending relevance.
	// Failures are reported as *RetrievalError.
	Search(ctx context.Context, query string, topK int) ([]domain.Passage, error)
}

// DocumentSource supplies documents to index.
type DocumentSource interface {
	// Load returns every readable document in the source. Documents that
	// fail to download or parse are skipped, not reported as errors.
	Load(ctx context.Context) ([]domain.Document, error)

	// Info summarizes the container backing the source.
	Info(ctx context.Context) (domain.ContainerInfo, error)
}

// Chunker splits documents into indexable chunks.
type Chunker interface {
	Split(doc domain.Document) []domain.Chunk
}

// Embedder turns text into vectors.
type Embedder interface {
	// Name identifies the embedder in logs and statistics.
	Name() string

	// Prepare lets corpus-dependent embedders fit themselves to the corpus
	// before any call to Embed. Stateless embedders return nil.
	Prepare(ctx context.Context, corpus []string) error

	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists chunk vectors and answers nearest-neighbour queries.
type VectorStore interface {
	// Upsert stores chunks with their vectors. len(chunks) must equal
	// len(vectors).
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Search returns the k nearest chunks to vector as passages, scored by
	// cosine similarity.
	Search(ctx context.Context, vector []float32, k int) ([]domain.Passage, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)
}
