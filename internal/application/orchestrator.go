// Package application composes answers from retrieved context: it drives
// the role exchange, segments the transcript and assembles the result.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

const tracerName = "github.com/PujaAmmineni/RAG-AGENTS/internal/application"

// Orchestrator decides between the collaborative and fallback paths and
// drives role completions to build a raw transcript.
// An Orchestrator is safe for sequential reuse across queries; it keeps no
// per-query state.
type Orchestrator struct {
	client      ports.LLMClient
	maxRounds   int
	temperature float64
	maxTokens   int
	logger      *slog.Logger
	metrics     ports.MetricsCollector
	tracer      trace.Tracer
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMaxRounds sets the total completion budget of the collaborative path.
func WithMaxRounds(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}

// WithTemperature sets the sampling temperature sent with each completion.
func WithTemperature(t float64) OrchestratorOption {
	return func(o *Orchestrator) { o.temperature = t }
}

// WithMaxTokens caps each completion. Zero leaves the provider default.
func WithMaxTokens(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.maxTokens = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m ports.MetricsCollector) OrchestratorOption {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// NewOrchestrator creates an Orchestrator backed by client.
// It returns an error if client is nil or the role registry is invalid.
func NewOrchestrator(client ports.LLMClient, opts ...OrchestratorOption) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("orchestrator: completion client is required")
	}
	if err := ValidateRegistry(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		client:      client,
		maxRounds:   DefaultMaxRounds,
		temperature: DefaultTemperature,
		logger:      slog.Default(),
		metrics:     ports.NopMetrics{},
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run produces the raw transcript for query over rc. It never returns an
// error: completion failures become a SoftFailed result whose transcript is
// the diagnostic text.
func (o *Orchestrator) Run(ctx context.Context, query string, rc domain.RetrievedContext) (result domain.RunResult) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.run")
	start := time.Now()

	defer func() {
		// A panicking backend is reported like any other completion failure.
		if r := recover(); r != nil {
			result = domain.SoftFailed(fmt.Errorf("panic during completion: %v", r), result.Rounds)
		}
		o.finish(span, result, time.Since(start))
	}()

	if rc.IsEmpty() {
		return o.runFallback(ctx, query)
	}
	return o.runCollaborative(ctx, query, rc)
}

// runFallback issues the single Generalist call.
func (o *Orchestrator) runFallback(ctx context.Context, query string) domain.RunResult {
	role := domain.GeneralistRole()
	prompt := fmt.Sprintf(
		"The user asked: '%s'\n\nThere is no information found in the documents. Please provide a general answer.",
		query)

	out, err := o.complete(ctx, role, prompt)
	if err != nil {
		return domain.SoftFailed(err, 1)
	}

	out = strings.TrimSpace(out)
	if !role.HasMarkerPrefix(out) {
		out = role.Marker + " " + out
	}
	return domain.OK(domain.PathFallback, out, 1, role.Name)
}

// runCollaborative walks START → ANALYZED → EVIDENCED → VERIFIED within the
// round budget. A turn with no text consumes a round without advancing.
func (o *Orchestrator) runCollaborative(ctx context.Context, query string, rc domain.RetrievedContext) domain.RunResult {
	roles := domain.CollaborativeRoles()
	seed := buildCollaborativePrompt(query, rc)

	outputs := make([]string, 0, len(roles))
	next, rounds := 0, 0
	for rounds < o.maxRounds && next < len(roles) {
		role := roles[next]
		rounds++

		out, err := o.complete(ctx, role, turnPrompt(seed, outputs))
		if err != nil {
			return domain.SoftFailed(err, rounds)
		}

		out = strings.TrimSpace(out)
		if out == "" {
			o.logger.Warn("role produced no output",
				slog.String("role", string(role.Name)),
				slog.Int("round", rounds))
			continue
		}
		outputs = append(outputs, out)
		next++
	}

	if next < len(roles) {
		o.logger.Info("round budget exhausted before chain completed",
			slog.Int("rounds", rounds),
			slog.Int("roles_completed", next))
	}

	var reached domain.RoleName
	if next > 0 {
		reached = roles[next-1].Name
	}
	return domain.OK(domain.PathCollaborative, strings.Join(outputs, "\n\n"), rounds, reached)
}

// complete issues one role turn.
func (o *Orchestrator) complete(ctx context.Context, role domain.Role, prompt string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.turn",
		trace.WithAttributes(attribute.String("rag.role", string(role.Name))))
	defer span.End()

	opts := map[string]any{
		"system":      role.Instructions,
		"temperature": o.temperature,
		"role":        string(role.Name),
	}
	if o.maxTokens > 0 {
		opts["max_tokens"] = o.maxTokens
	}

	out, err := o.client.Complete(ctx, prompt, opts)
	status := "success"
	if err != nil {
		status = "error"
		var cerr *ports.CompletionError
		if !errors.As(err, &cerr) {
			err = ports.NewCompletionError(o.client.GetModel(), string(role.Name), err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.metrics.RecordCounter("rag_role_turns_total", 1, map[string]string{
		"role":   string(role.Name),
		"status": status,
	})
	return out, err
}

func (o *Orchestrator) finish(span trace.Span, result domain.RunResult, elapsed time.Duration) {
	defer span.End()

	span.SetAttributes(
		attribute.String("rag.path", string(result.Path)),
		attribute.Int("rag.rounds", result.Rounds),
		attribute.String("rag.reached", string(result.Reached)),
	)
	o.metrics.RecordLatency("orchestrator_run", elapsed, map[string]string{"path": string(result.Path)})

	if result.Status == domain.RunSoftFailed {
		span.SetStatus(codes.Error, result.Err.Error())
		o.logger.Error("agent processing failed",
			slog.String("error", result.Err.Error()),
			slog.Int("rounds", result.Rounds))
		return
	}
	o.logger.Debug("orchestrator run complete",
		slog.String("path", string(result.Path)),
		slog.Int("rounds", result.Rounds),
		slog.String("reached", string(result.Reached)),
		slog.Duration("elapsed", elapsed))
}

// buildCollaborativePrompt renders the seed prompt shared by every role.
func buildCollaborativePrompt(query string, rc domain.RetrievedContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	fmt.Fprintf(&b, "Context from documents:\n%s\n\n", rc.Text())
	b.WriteString("Please analyze this in three steps:\n")
	b.WriteString("1. First, analyze the question and context (Commander)\n")
	b.WriteString("2. Then, provide specific evidence from the documents (Prover)\n")
	b.WriteString("3. Finally, verify and summarize the findings (Verifier)\n\n")
	b.WriteString("Each response must start with the appropriate marker:\n")
	for _, r := range domain.CollaborativeRoles() {
		b.WriteString(r.Marker)
		b.WriteByte('\n')
	}
	return b.String()
}

// turnPrompt appends the conversation so far to the seed prompt.
func turnPrompt(seed string, outputs []string) string {
	if len(outputs) == 0 {
		return seed
	}
	return seed + "\nConversation so far:\n\n" + strings.Join(outputs, "\n\n")
}
