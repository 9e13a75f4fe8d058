package llm

import (
	"context"
	"errors"
	"time"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
	provider  string
}

// MetricsMiddleware records latency, request counts and token usage per
// provider, model and role.
func MetricsMiddleware(collector ports.MetricsCollector, provider string) Middleware {
	return func(next CoreLLM) CoreLLM {
		if collector == nil {
			return next
		}
		return &metricsLLM{next: next, collector: collector, provider: provider}
	}
}

func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	role, _ := opts["role"].(string)
	labels := map[string]string{
		"provider": m.provider,
		"model":    m.next.GetModel(),
		"role":     role,
		"status":   requestStatus(ctx, err),
	}

	m.collector.RecordHistogram("llm_latency_seconds", time.Since(start).Seconds(), labels)
	m.collector.RecordCounter("llm_requests_total", 1, labels)

	if err == nil {
		in := map[string]string{"provider": m.provider, "model": labels["model"], "token_type": "input"}
		out := map[string]string{"provider": m.provider, "model": labels["model"], "token_type": "output"}
		m.collector.RecordCounter("llm_tokens_total", float64(tokensIn), in)
		m.collector.RecordCounter("llm_tokens_total", float64(tokensOut), out)
	}

	return response, tokensIn, tokensOut, err
}

func requestStatus(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
