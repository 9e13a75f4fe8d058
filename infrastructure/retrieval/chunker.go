// Package retrieval turns documents into searchable vectors and answers
// passage queries: splitting, embedding, vector storage and the retriever
// that ties them together.
package retrieval

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// DefaultSeparators are tried in order, from paragraphs down to single
// characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits on the coarsest separator present, recursing into
// pieces that are still too long, and then merges adjacent pieces back up to
// the chunk size with a trailing overlap. Sizes are measured in runes.
type RecursiveChunker struct {
	size       int
	overlap    int
	separators []string
}

var _ ports.Chunker = (*RecursiveChunker)(nil)

// NewRecursiveChunker returns a chunker producing chunks of at most size
// runes, each sharing up to overlap runes with its predecessor.
func NewRecursiveChunker(size, overlap int) (*RecursiveChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &RecursiveChunker{size: size, overlap: overlap, separators: DefaultSeparators}, nil
}

// Split chunks doc. Chunk IDs are "<source>#<n>".
func (c *RecursiveChunker) Split(doc domain.Document) []domain.Chunk {
	texts := c.SplitText(doc.Content)
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			ID:     fmt.Sprintf("%s#%d", doc.Source, i),
			Text:   t,
			Source: doc.Source,
		}
	}
	return chunks
}

// SplitText returns the chunk texts for text, trimmed and non-empty.
func (c *RecursiveChunker) SplitText(text string) []string {
	return c.split(text, c.separators)
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, pending []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if runeLen(p) < c.size {
			pending = append(pending, p)
			continue
		}
		if len(pending) > 0 {
			out = append(out, c.merge(pending, sep)...)
			pending = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
		} else {
			out = append(out, c.split(p, rest)...)
		}
	}
	if len(pending) > 0 {
		out = append(out, c.merge(pending, sep)...)
	}
	return out
}

// merge packs pieces into chunks of at most c.size runes. When a chunk is
// emitted, pieces are dropped from the front until at most c.overlap runes
// remain to seed the next chunk.
func (c *RecursiveChunker) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	joined := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var docs, window []string
	total := 0
	for _, p := range pieces {
		l := runeLen(p)
		if len(window) > 0 && total+l+joined(len(window)) > c.size {
			if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
				docs = append(docs, doc)
			}
			for len(window) > 0 && (total > c.overlap || total+l+joined(len(window)) > c.size) {
				total -= runeLen(window[0]) + joined(len(window)-1)
				window = window[1:]
			}
		}
		total += l + joined(len(window))
		window = append(window, p)
	}
	if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
