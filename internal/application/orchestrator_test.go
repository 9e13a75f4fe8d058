package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

func newTestOrchestrator(t *testing.T, client ports.LLMClient, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(client, opts...)
	require.NoError(t, err)
	return o
}

// TestNewOrchestrator_RequiresClient verifies constructor validation.
func TestNewOrchestrator_RequiresClient(t *testing.T) {
	_, err := NewOrchestrator(nil)
	require.Error(t, err)
}

// TestOrchestrator_EmptyContextUsesGeneralist verifies the single-call
// fallback path and its prompt.
func TestOrchestrator_EmptyContextUsesGeneralist(t *testing.T) {
	client := newScriptedClient("Paris is the capital of France.")
	o := newTestOrchestrator(t, client)

	run := o.Run(context.Background(), "What is the capital of France?", domain.NewRetrievedContext(nil))

	require.Len(t, client.calls, 1)
	assert.Equal(t,
		"The user asked: 'What is the capital of France?'\n\nThere is no information found in the documents. Please provide a general answer.",
		client.calls[0].prompt)
	assert.Equal(t, domain.GeneralistRole().Instructions, client.systemPrompts()[0])

	assert.Equal(t, domain.RunOK, run.Status)
	assert.Equal(t, domain.PathFallback, run.Path)
	assert.Equal(t, "GENERAL ANSWER: Paris is the capital of France.", run.Transcript)
}

// TestOrchestrator_FallbackKeepsExistingMarker verifies that the marker is
// not doubled when the model already used it.
func TestOrchestrator_FallbackKeepsExistingMarker(t *testing.T) {
	client := newScriptedClient("general answer: already marked")
	o := newTestOrchestrator(t, client)

	run := o.Run(context.Background(), "q", domain.NewRetrievedContext([]domain.Passage{{Text: "   ", Source: "blank.pdf"}}))

	assert.Equal(t, "general answer: already marked", run.Transcript)
}

// TestOrchestrator_EmptyContextAlwaysOneGeneralistSection verifies that the
// fallback path segments to exactly one Generalist section whatever the
// query or model output.
func TestOrchestrator_EmptyContextAlwaysOneGeneralistSection(t *testing.T) {
	outputs := []string{"", "ANALYSIS: sneaky", "EVIDENCE: x\nFINAL ANSWER: y", "plain"}
	queries := []string{"", "ANALYSIS:", "why?"}

	for _, out := range outputs {
		for _, q := range queries {
			o := newTestOrchestrator(t, newScriptedClient(out))
			sections := Segment(o.Run(context.Background(), q, domain.RetrievedContext{}).Transcript)

			require.Len(t, sections, 1, "output=%q query=%q", out, q)
			assert.Equal(t, domain.RoleGeneralist, sections[0].Role)
		}
	}
}

// TestOrchestrator_CollaborativeSequence verifies the Analyzer, Prover,
// Verifier order, their system prompts and the transcript join.
func TestOrchestrator_CollaborativeSequence(t *testing.T) {
	client := newScriptedClient("ANALYSIS: a", "EVIDENCE: b", "FINAL ANSWER: c")
	o := newTestOrchestrator(t, client, WithTemperature(0.2))

	run := o.Run(context.Background(), "What is RAG?", domain.NewRetrievedContext(samplePassages))

	require.Len(t, client.calls, 3)
	roles := domain.CollaborativeRoles()
	for i, sys := range client.systemPrompts() {
		assert.Equal(t, roles[i].Instructions, sys)
		assert.Equal(t, 0.2, client.calls[i].opts["temperature"])
	}

	first := client.calls[0].prompt
	assert.Contains(t, first, "Question: What is RAG?")
	assert.Contains(t, first, "[From rag.pdf]:\nRAG combines retrieval with generation.")
	assert.Contains(t, first, "ANALYSIS:\nEVIDENCE:\nFINAL ANSWER:")
	assert.NotContains(t, first, "Conversation so far")
	assert.Contains(t, client.calls[2].prompt, "ANALYSIS: a\n\nEVIDENCE: b")

	assert.Equal(t, domain.RunOK, run.Status)
	assert.Equal(t, domain.PathCollaborative, run.Path)
	assert.Equal(t, "ANALYSIS: a\n\nEVIDENCE: b\n\nFINAL ANSWER: c", run.Transcript)
	assert.Equal(t, 3, run.Rounds)
	assert.Equal(t, domain.RoleVerifier, run.Reached)
}

// TestOrchestrator_RoundBudgetIsTotal verifies that an empty turn consumes a
// round without advancing, so the chain ends early and without error.
func TestOrchestrator_RoundBudgetIsTotal(t *testing.T) {
	client := newScriptedClient("ANALYSIS: a", "   ", "EVIDENCE: b", "FINAL ANSWER: never")
	o := newTestOrchestrator(t, client)

	run := o.Run(context.Background(), "q", domain.NewRetrievedContext(samplePassages))

	assert.Len(t, client.calls, 3)
	assert.Equal(t, domain.RunOK, run.Status)
	assert.Equal(t, "ANALYSIS: a\n\nEVIDENCE: b", run.Transcript)
	assert.Equal(t, domain.RoleProver, run.Reached)
	assert.Equal(t, []domain.RoleName{domain.RoleAnalyzer, domain.RoleProver}, roleNames(Segment(run.Transcript)))

	// The empty turn was retried for the same role.
	sys := client.systemPrompts()
	assert.Equal(t, sys[1], sys[2])
}

// TestOrchestrator_WiderRoundBudget verifies that an explicit budget lets
// the chain recover from empty turns.
func TestOrchestrator_WiderRoundBudget(t *testing.T) {
	client := newScriptedClient("", "ANALYSIS: a", "EVIDENCE: b", "FINAL ANSWER: c")
	o := newTestOrchestrator(t, client, WithMaxRounds(9))

	run := o.Run(context.Background(), "q", domain.NewRetrievedContext(samplePassages))

	assert.Len(t, client.calls, 4)
	assert.Equal(t, domain.RoleVerifier, run.Reached)
}

// TestOrchestrator_CompletionErrorSoftFails verifies that a backend failure
// becomes the diagnostic transcript and never escapes.
func TestOrchestrator_CompletionErrorSoftFails(t *testing.T) {
	for _, failAt := range []int{0, 1, 2} {
		client := newScriptedClient("ANALYSIS: a", "EVIDENCE: b", "FINAL ANSWER: c")
		client.errs[failAt] = errors.New("connection reset by peer")
		o := newTestOrchestrator(t, client)

		var run domain.RunResult
		require.NotPanics(t, func() {
			run = o.Run(context.Background(), "q", domain.NewRetrievedContext(samplePassages))
		})

		assert.Equal(t, domain.RunSoftFailed, run.Status)
		assert.Equal(t, domain.PathSoftFailed, run.Path)
		assert.True(t, strings.HasPrefix(run.Transcript, "Error in agent processing: "), run.Transcript)
		assert.Contains(t, run.Transcript, "connection reset by peer")
		assert.Len(t, client.calls, failAt+1, "no retry after a failed turn")

		var cerr *ports.CompletionError
		require.ErrorAs(t, run.Err, &cerr)
		assert.Equal(t, string(domain.CollaborativeRoles()[failAt].Name), cerr.Role)
	}
}

// TestOrchestrator_FallbackErrorSoftFails verifies soft failure on the
// fallback path.
func TestOrchestrator_FallbackErrorSoftFails(t *testing.T) {
	client := newScriptedClient()
	client.errs[0] = context.DeadlineExceeded
	o := newTestOrchestrator(t, client)

	run := o.Run(context.Background(), "q", domain.RetrievedContext{})

	assert.Equal(t, domain.RunSoftFailed, run.Status)
	assert.True(t, domain.IsDiagnostic(run.String()))
	assert.ErrorIs(t, run.Err, context.DeadlineExceeded)
}

// TestOrchestrator_PanicSoftFails verifies that a panicking backend is
// reported as a soft failure.
func TestOrchestrator_PanicSoftFails(t *testing.T) {
	client := newScriptedClient("ANALYSIS: a")
	client.panicAt = 1
	o := newTestOrchestrator(t, client)

	run := o.Run(context.Background(), "q", domain.NewRetrievedContext(samplePassages))

	assert.Equal(t, domain.RunSoftFailed, run.Status)
	assert.Contains(t, run.Transcript, "backend exploded")
}

// TestOrchestrator_NeverMixesPaths verifies that non-empty context never
// yields a Generalist section alongside collaborative ones, and at most one
// section per role.
func TestOrchestrator_NeverMixesPaths(t *testing.T) {
	scripts := [][]string{
		{"ANALYSIS: a", "EVIDENCE: b", "FINAL ANSWER: c"},
		{"ANALYSIS: a ANALYSIS: b", "EVIDENCE: e EVIDENCE: f", "FINAL ANSWER: g"},
		{"GENERAL ANSWER: model went off script", "EVIDENCE: b", "FINAL ANSWER: c"},
		{"no markers at all", "", ""},
	}

	for _, script := range scripts {
		o := newTestOrchestrator(t, newScriptedClient(script...))
		sections := Segment(o.Run(context.Background(), "q", domain.NewRetrievedContext(samplePassages)).Transcript)

		seen := map[domain.RoleName]int{}
		for _, s := range sections {
			seen[s.Role]++
		}
		for role, n := range seen {
			assert.Equal(t, 1, n, "role %s appears %d times", role, n)
		}
		if seen[domain.RoleGeneralist] > 0 {
			assert.Len(t, sections, 1, "generalist must not mix with collaborative sections")
		}
	}
}

// TestOrchestrator_RecordsTurnMetrics verifies per-role turn counters.
func TestOrchestrator_RecordsTurnMetrics(t *testing.T) {
	metrics := newRecordingMetrics()
	client := newScriptedClient("ANALYSIS: a")
	client.errs[1] = errors.New("boom")
	o := newTestOrchestrator(t, client, WithMetrics(metrics))

	o.Run(context.Background(), "q", domain.NewRetrievedContext(samplePassages))

	assert.Equal(t, 1.0, metrics.get("rag_role_turns_total,role=Analyzer,status=success"))
	assert.Equal(t, 1.0, metrics.get("rag_role_turns_total,role=Prover,status=error"))
	assert.Zero(t, metrics.get("rag_role_turns_total,role=Verifier,status=success"))
}
