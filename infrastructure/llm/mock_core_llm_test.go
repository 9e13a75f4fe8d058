package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errSimulated = errors.New("simulated failure")

// MockCoreLLM is a scriptable CoreLLM for middleware tests.
type MockCoreLLM struct {
	mu sync.Mutex

	Response      string
	TokensIn      int
	TokensOut     int
	Error         error
	Model         string
	ResponseDelay time.Duration

	// FailUntilAttempt fails the first N calls with Error, or errSimulated
	// when Error is nil, then succeeds.
	FailUntilAttempt int

	CallCount int
	LastOpts  map[string]any
	Deadlines []bool
}

func NewMockCoreLLM() *MockCoreLLM {
	return &MockCoreLLM{
		Response:  "ANALYSIS: test response",
		TokensIn:  10,
		TokensOut: 20,
		Model:     "test-model",
	}
}

func (m *MockCoreLLM) DoRequest(ctx context.Context, _ string, opts map[string]any) (string, int, int, error) {
	m.mu.Lock()
	m.CallCount++
	call := m.CallCount
	m.LastOpts = opts
	_, hasDeadline := ctx.Deadline()
	m.Deadlines = append(m.Deadlines, hasDeadline)
	delay := m.ResponseDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUntilAttempt > 0 {
		if call <= m.FailUntilAttempt {
			if m.Error != nil {
				return "", 0, 0, m.Error
			}
			return "", 0, 0, errSimulated
		}
		return m.Response, m.TokensIn, m.TokensOut, nil
	}
	if m.Error != nil {
		return "", 0, 0, m.Error
	}
	return m.Response, m.TokensIn, m.TokensOut, nil
}

func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

func (m *MockCoreLLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}
