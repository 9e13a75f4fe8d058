package domain

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultTopK is the number of passages retrieved per query.
const DefaultTopK = 3

// Passage is one ranked unit of retrieved text.
type Passage struct {
	Text   string
	Source string
	Score  float64
}

// RetrievedContext is the ephemeral, per-query result of retrieval.
type RetrievedContext struct {
	// Passages are ordered by descending relevance.
	Passages []Passage
}

// NewRetrievedContext wraps passages in a RetrievedContext.
func NewRetrievedContext(passages []Passage) RetrievedContext {
	return RetrievedContext{Passages: passages}
}

// IsEmpty reports whether the concatenated passage text is empty or
// whitespace-only. It is the only branch point between the collaborative
// and fallback paths.
func (c RetrievedContext) IsEmpty() bool {
	for _, p := range c.Passages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

// Sources returns the sorted set of distinct source identifiers.
func (c RetrievedContext) Sources() []string {
	seen := make(map[string]struct{}, len(c.Passages))
	sources := make([]string, 0, len(c.Passages))
	for _, p := range c.Passages {
		if p.Source == "" {
			continue
		}
		if _, ok := seen[p.Source]; ok {
			continue
		}
		seen[p.Source] = struct{}{}
		sources = append(sources, p.Source)
	}
	sort.Strings(sources)
	return sources
}

// Text renders the passages as "[From <source>]:\n<text>" blocks separated
// by blank lines.
func (c RetrievedContext) Text() string {
	parts := make([]string, 0, len(c.Passages))
	for _, p := range c.Passages {
		parts = append(parts, fmt.Sprintf("[From %s]:\n%s", p.Source, p.Text))
	}
	return strings.Join(parts, "\n\n")
}
