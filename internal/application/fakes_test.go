package application

import (
	"context"
	"sync"
	"time"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

// scriptedCall records one Complete invocation.
type scriptedCall struct {
	prompt string
	opts   map[string]any
}

// scriptedClient replies with a fixed script of responses and optional
// per-call errors, recording every call.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	errs      map[int]error
	panicAt   int
	calls     []scriptedCall
}

func newScriptedClient(responses ...string) *scriptedClient {
	return &scriptedClient{responses: responses, errs: map[int]error{}, panicAt: -1}
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.calls)
	c.calls = append(c.calls, scriptedCall{prompt: prompt, opts: opts})
	if n == c.panicAt {
		panic("backend exploded")
	}
	if err, ok := c.errs[n]; ok {
		return "", err
	}
	if n < len(c.responses) {
		return c.responses[n], nil
	}
	return "", nil
}

func (c *scriptedClient) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }

func (c *scriptedClient) GetModel() string { return "scripted-model" }

func (c *scriptedClient) systemPrompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	for i, call := range c.calls {
		out[i], _ = call.opts["system"].(string)
	}
	return out
}

// staticRetriever returns fixed passages or a fixed error.
type staticRetriever struct {
	passages []domain.Passage
	err      error
	queries  []string
	topKs    []int
}

func (r *staticRetriever) Search(ctx context.Context, query string, topK int) ([]domain.Passage, error) {
	r.queries = append(r.queries, query)
	r.topKs = append(r.topKs, topK)
	if r.err != nil {
		return nil, r.err
	}
	return r.passages, nil
}

// recordingMetrics counts counter increments by metric and label set.
type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: map[string]float64{}}
}

func (m *recordingMetrics) key(metric string, labels map[string]string) string {
	k := metric
	for _, name := range []string{"path", "role", "status"} {
		if v, ok := labels[name]; ok {
			k += "," + name + "=" + v
		}
	}
	return k
}

func (m *recordingMetrics) RecordCounter(metric string, v float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[m.key(metric, labels)] += v
}

func (m *recordingMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (m *recordingMetrics) RecordGauge(string, float64, map[string]string)         {}
func (m *recordingMetrics) RecordHistogram(string, float64, map[string]string)     {}

func (m *recordingMetrics) get(key string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key]
}

var samplePassages = []domain.Passage{
	{Text: "RAG combines retrieval with generation.", Source: "rag.pdf", Score: 0.91},
	{Text: "Vector stores index embeddings.", Source: "vectors.pdf", Score: 0.72},
}
