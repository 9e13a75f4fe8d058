package application

import (
	"fmt"
	"strings"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

// Assemble combines the query, its retrieved context and the orchestrator
// output into a QueryResult. A soft failure yields a single diagnostic
// section rather than an error.
func Assemble(query string, rc domain.RetrievedContext, run domain.RunResult) domain.QueryResult {
	result := domain.QueryResult{
		Question:    query,
		ContextText: rc.Text(),
		Sources:     rc.Sources(),
		RawResponse: run.Transcript,
		Path:        run.Path,
	}

	if run.Status == domain.RunSoftFailed {
		result.Sections = []domain.Section{domain.DiagnosticSection(run.Transcript)}
		return result
	}

	result.Sections = Segment(run.Transcript)
	return result
}

// AssembleError builds an error-only result.
func AssembleError(query string, err error) domain.QueryResult {
	return domain.QueryResult{
		Question: query,
		Path:     domain.PathError,
		Error:    err.Error(),
	}
}

// BlockKind classifies a display block.
type BlockKind int

// Block kinds.
const (
	BlockInfo BlockKind = iota
	BlockSection
	BlockError
)

// Block is one unit of presentation, independent of any terminal library.
type Block struct {
	Kind  BlockKind
	Title string
	Body  string
	Color string
}

// Render lays out a result for display: the query information block first,
// then one block per section in the order the sections were produced. An
// error result renders as a single error block.
func Render(r domain.QueryResult) []Block {
	if r.HasError() {
		return []Block{{
			Kind:  BlockError,
			Title: "Error",
			Body:  "Error: " + r.Error,
			Color: "red",
		}}
	}

	blocks := make([]Block, 0, len(r.Sections)+1)
	blocks = append(blocks, Block{
		Kind:  BlockInfo,
		Title: "Query Information",
		Body:  queryInfo(r),
		Color: "yellow",
	})

	for _, s := range r.Sections {
		body := s.Body
		if s.Role != domain.RoleDiagnostic {
			body += fmt.Sprintf("\n\nConfidence Score: %d/10", s.Confidence)
		}
		blocks = append(blocks, Block{
			Kind:  BlockSection,
			Title: s.Title,
			Body:  body,
			Color: s.Color,
		})
	}
	return blocks
}

func queryInfo(r domain.QueryResult) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(r.Question)
	b.WriteString("\n\n")
	if len(r.Sources) == 0 {
		b.WriteString("No context from documents")
	} else {
		b.WriteString("Using context from: ")
		b.WriteString(strings.Join(r.Sources, ", "))
	}
	return b.String()
}
