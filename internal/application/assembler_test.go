package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

// TestAssemble_Collaborative verifies field population from context and
// transcript.
func TestAssemble_Collaborative(t *testing.T) {
	rc := domain.NewRetrievedContext(samplePassages)
	run := domain.OK(domain.PathCollaborative, "EVIDENCE: b\n\nANALYSIS: a", 2, domain.RoleProver)

	res := Assemble("What is RAG?", rc, run)

	assert.Equal(t, "What is RAG?", res.Question)
	assert.Equal(t, rc.Text(), res.ContextText)
	assert.Equal(t, []string{"rag.pdf", "vectors.pdf"}, res.Sources)
	assert.Equal(t, run.Transcript, res.RawResponse)
	assert.Equal(t, domain.PathCollaborative, res.Path)
	assert.Empty(t, res.Error)
	assert.Equal(t, []domain.RoleName{domain.RoleAnalyzer, domain.RoleProver}, roleNames(res.Sections))
}

// TestAssemble_SoftFailure verifies that the diagnostic becomes the sole
// section and is not reported as an error.
func TestAssemble_SoftFailure(t *testing.T) {
	run := domain.SoftFailed(errors.New("timeout"), 1)

	res := Assemble("q", domain.NewRetrievedContext(samplePassages), run)

	assert.False(t, res.HasError())
	require.Len(t, res.Sections, 1)
	assert.Equal(t, domain.RoleDiagnostic, res.Sections[0].Role)
	assert.Equal(t, "Error in agent processing: timeout", res.Sections[0].Body)
}

// TestAssembleError verifies that only the question survives an error.
func TestAssembleError(t *testing.T) {
	res := AssembleError("q", errors.New("index offline"))

	assert.Equal(t, domain.QueryResult{Question: "q", Path: domain.PathError, Error: "index offline"}, res)
}

// TestRender_Order verifies the info block first, then sections with their
// confidence line.
func TestRender_Order(t *testing.T) {
	res := Assemble("What is RAG?", domain.NewRetrievedContext(samplePassages),
		domain.OK(domain.PathCollaborative, "FINAL ANSWER: c\nANALYSIS: a\nEVIDENCE: b", 3, domain.RoleVerifier))

	blocks := Render(res)

	require.Len(t, blocks, 4)
	assert.Equal(t, BlockInfo, blocks[0].Kind)
	assert.Equal(t, "Query Information", blocks[0].Title)
	assert.Equal(t, "Question: What is RAG?\n\nUsing context from: rag.pdf, vectors.pdf", blocks[0].Body)

	assert.Equal(t, "Commander Analysis", blocks[1].Title)
	assert.Equal(t, "ANALYSIS: a\n\nConfidence Score: 9/10", blocks[1].Body)
	assert.Equal(t, "Evidence", blocks[2].Title)
	assert.Equal(t, "EVIDENCE: b\n\nConfidence Score: 8/10", blocks[2].Body)
	assert.Equal(t, "Final Summary", blocks[3].Title)
	assert.Equal(t, "cyan", blocks[3].Color)
}

// TestRender_NoContext verifies the no-context notice and the Generalist
// block.
func TestRender_NoContext(t *testing.T) {
	res := Assemble("hi", domain.RetrievedContext{},
		domain.OK(domain.PathFallback, "GENERAL ANSWER: hello", 1, domain.RoleGeneralist))

	blocks := Render(res)

	require.Len(t, blocks, 2)
	assert.Equal(t, "Question: hi\n\nNo context from documents", blocks[0].Body)
	assert.Equal(t, "Generalist Agent Response", blocks[1].Title)
	assert.Equal(t, "GENERAL ANSWER: hello\n\nConfidence Score: 5/10", blocks[1].Body)
}

// TestRender_ErrorOnly verifies that an error result renders a single
// error block.
func TestRender_ErrorOnly(t *testing.T) {
	blocks := Render(AssembleError("q", errors.New("store unavailable")))

	require.Len(t, blocks, 1)
	assert.Equal(t, Block{Kind: BlockError, Title: "Error", Body: "Error: store unavailable", Color: "red"}, blocks[0])
}

// TestRender_DiagnosticHasNoScore verifies the soft-failure block.
func TestRender_DiagnosticHasNoScore(t *testing.T) {
	res := Assemble("q", domain.RetrievedContext{}, domain.SoftFailed(errors.New("boom"), 1))

	blocks := Render(res)

	require.Len(t, blocks, 2)
	assert.Equal(t, "Error in agent processing: boom", blocks[1].Body)
	assert.NotContains(t, blocks[1].Body, "Confidence Score")
}
