package retrieval

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"sync"

	"golang.org/x/text/cases"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// ErrNotPrepared is returned by Embed before Prepare has fitted a corpus.
var ErrNotPrepared = errors.New("tfidf embedder not prepared")

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// TFIDFEmbedder vectorizes text against a vocabulary fitted on the indexed
// corpus. Vectors are L2-normalized, so cosine similarity is a dot product.
type TFIDFEmbedder struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	stopwords  map[string]struct{}
}

var _ ports.Embedder = (*TFIDFEmbedder)(nil)

func NewTFIDFEmbedder() *TFIDFEmbedder {
	return &TFIDFEmbedder{stopwords: defaultStopwords()}
}

func (e *TFIDFEmbedder) Name() string { return "tfidf" }

// CorpusDependent reports that vectors change whenever Prepare is called
// again, so query embeddings must not outlive an index rebuild.
func (e *TFIDFEmbedder) CorpusDependent() bool { return true }

// Dimension is the vocabulary size, zero before Prepare.
func (e *TFIDFEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.idf)
}

// Prepare fits the vocabulary and smoothed inverse document frequencies.
func (e *TFIDFEmbedder) Prepare(_ context.Context, corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("no tokens found in corpus")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	e.mu.Lock()
	e.vocabulary = vocab
	e.idf = idf
	e.mu.Unlock()
	return nil
}

// Embed returns one vector per text. Texts with no known terms map to the
// zero vector.
func (e *TFIDFEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.idf == nil {
		return nil, ErrNotPrepared
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *TFIDFEmbedder) vector(text string) []float32 {
	vec := make([]float32, len(e.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}

	weights := make(map[int]float64, len(tf))
	norm := 0.0
	for idx, count := range tf {
		w := float64(count) / float64(total) * e.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx, w := range weights {
		vec[idx] = float32(w / norm)
	}
	return vec
}

func (e *TFIDFEmbedder) tokenize(text string) []string {
	folded := cases.Fold().String(text)
	raw := tokenPattern.FindAllString(folded, -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so",
		"such", "into", "about", "between", "through", "during", "before", "after", "above", "below",
		"out", "off", "own", "same", "too", "very", "can", "will", "just", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
