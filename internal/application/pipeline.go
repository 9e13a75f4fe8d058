package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// Pipeline answers questions: retrieve, orchestrate, segment, assemble.
// Queries are processed one at a time by the caller; the pipeline itself
// holds only read-only collaborators.
type Pipeline struct {
	retriever    ports.Retriever
	orchestrator *Orchestrator
	indexer      *Indexer
	topK         int
	logger       *slog.Logger
	metrics      ports.MetricsCollector
	tracer       trace.Tracer
}

// PipelineDeps lists the collaborators of a Pipeline.
type PipelineDeps struct {
	Retriever    ports.Retriever
	Orchestrator *Orchestrator
	// Indexer is optional; without it Index fails.
	Indexer *Indexer
	TopK    int
	Logger  *slog.Logger
	Metrics ports.MetricsCollector
}

// NewPipeline validates deps and returns a Pipeline.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.Retriever == nil {
		return nil, fmt.Errorf("pipeline: retriever is required")
	}
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("pipeline: orchestrator is required")
	}

	p := &Pipeline{
		retriever:    deps.Retriever,
		orchestrator: deps.Orchestrator,
		indexer:      deps.Indexer,
		topK:         deps.TopK,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		tracer:       otel.Tracer(tracerName),
	}
	if p.topK <= 0 {
		p.topK = domain.DefaultTopK
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.metrics == nil {
		p.metrics = ports.NopMetrics{}
	}
	return p, nil
}

// Index builds the vector index. It is meant to run once at startup.
func (p *Pipeline) Index(ctx context.Context) (IndexStats, error) {
	if p.indexer == nil {
		return IndexStats{}, fmt.Errorf("pipeline: no indexer configured")
	}
	ctx, span := p.tracer.Start(ctx, "pipeline.index")
	defer span.End()

	stats, err := p.indexer.Build(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stats, err
	}
	span.SetAttributes(
		attribute.Int("rag.documents", stats.Documents),
		attribute.Int("rag.chunks", stats.Chunks))
	return stats, nil
}

// Answer runs the full pipeline for query. Only retrieval failures surface
// as an error result; completion failures are absorbed by the orchestrator.
// An empty query is answered like any other.
func (p *Pipeline) Answer(ctx context.Context, query string) domain.QueryResult {
	ctx, span := p.tracer.Start(ctx, "pipeline.answer")
	defer span.End()
	start := time.Now()

	passages, err := p.retriever.Search(ctx, query, p.topK)
	if err != nil {
		var rerr *ports.RetrievalError
		if !errors.As(err, &rerr) {
			err = ports.NewRetrievalError("search", query, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("retrieval failed", slog.String("error", err.Error()))
		p.record(domain.PathError, time.Since(start))
		return AssembleError(query, err)
	}
	p.metrics.RecordLatency("retrieval", time.Since(start), nil)

	rc := domain.NewRetrievedContext(passages)
	p.logger.Debug("retrieved context",
		slog.Int("passages", len(rc.Passages)),
		slog.Bool("empty", rc.IsEmpty()))

	run := p.orchestrator.Run(ctx, query, rc)
	result := Assemble(query, rc, run)

	span.SetAttributes(
		attribute.String("rag.path", string(result.Path)),
		attribute.Int("rag.sections", len(result.Sections)))
	p.record(result.Path, time.Since(start))
	return result
}

func (p *Pipeline) record(path domain.AnswerPath, elapsed time.Duration) {
	labels := map[string]string{"path": string(path)}
	p.metrics.RecordCounter("rag_queries_total", 1, labels)
	p.metrics.RecordLatency("answer", elapsed, labels)
}
