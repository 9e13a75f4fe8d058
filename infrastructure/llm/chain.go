package llm

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// ChainConfig describes the standard middleware chain for a provider.
type ChainConfig struct {
	Provider string

	// Timeout bounds each attempt. Zero disables it.
	Timeout time.Duration

	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// RequestsPerSecond of zero disables rate limiting.
	RequestsPerSecond float64
	Burst             int

	// BreakerFailures of zero disables the circuit breaker.
	BreakerFailures int
	BreakerCooldown time.Duration

	Metrics ports.MetricsCollector
	Tracer  trace.Tracer
}

// Middleware returns the chain, outermost first: tracing, metrics, retry,
// rate limit, circuit breaker, timeout. Each retry is paced, passes the
// breaker and gets its own deadline; tracing and metrics see one logical
// request.
func (c ChainConfig) Middleware() []Middleware {
	chain := []Middleware{TracingMiddleware(c.Tracer, c.Provider)}
	if c.Metrics != nil {
		chain = append(chain, MetricsMiddleware(c.Metrics, c.Provider))
	}
	if c.MaxRetries > 0 {
		chain = append(chain, RetryMiddleware(c.MaxRetries, c.BaseDelay, c.MaxDelay))
	}
	if c.RequestsPerSecond > 0 {
		chain = append(chain, RateLimitMiddleware(rate.Limit(c.RequestsPerSecond), max(c.Burst, 1)))
	}
	if c.BreakerFailures > 0 {
		var bm CircuitBreakerMetrics
		if c.Metrics != nil {
			bm = NewBreakerMetrics(c.Metrics, c.Provider)
		}
		chain = append(chain, CircuitBreakerMiddlewareWithMetrics(c.BreakerFailures, c.BreakerCooldown, bm))
	}
	if c.Timeout > 0 {
		chain = append(chain, TimeoutMiddleware(c.Timeout))
	}
	return chain
}
