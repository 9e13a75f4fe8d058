// Package llm is the completion backend of the answer pipeline. It puts the
// OpenAI, Azure OpenAI, Anthropic and Google providers behind one CoreLLM
// interface and layers resilience and observability on top as middleware.
//
// Basic usage:
//
//	client, err := llm.NewClient("azure", llm.ClientConfig{
//	    APIKey:     key,
//	    Model:      "gpt-4o",
//	    BaseURL:    "https://example.openai.azure.com",
//	    APIVersion: "2024-06-01",
//	})
//	answer, err := client.Complete(ctx, prompt, map[string]any{"system": instructions})
//
// The middleware chain is applied outermost first:
//
//	llm.ClientConfig{
//	    Middleware: []llm.Middleware{
//	        llm.TracingMiddleware(nil, "openai"),
//	        llm.MetricsMiddleware(collector, "openai"),
//	        llm.RetryMiddleware(2, 500*time.Millisecond, 10*time.Second),
//	        llm.TimeoutMiddleware(60 * time.Second),
//	    },
//	}
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// CoreLLM is the minimal contract a provider implements. Middleware wraps
// any CoreLLM and returns another one.
type CoreLLM interface {
	// DoRequest sends prompt to the provider. opts carries request
	// parameters such as "system", "temperature" and "max_tokens".
	// It returns the response text and the input and output token counts.
	DoRequest(
		ctx context.Context,
		prompt string,
		opts map[string]any,
	) (
		response string,
		tokensIn, tokensOut int,
		err error,
	)

	// GetModel returns the configured model, or deployment for azure.
	GetModel() string

	// SetModel changes the model used by subsequent requests.
	SetModel(model string)
}

// TokenEstimator approximates token counts before a request is sent.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// ClientConfig holds everything needed to build a provider and its chain.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model is the model name. For azure it is the deployment name.
	Model string

	// BaseURL overrides the provider endpoint. Required for azure, where it
	// is the resource endpoint.
	BaseURL string

	// APIVersion is the azure API version. Ignored by other providers.
	APIVersion string

	// Timeout bounds the provider's HTTP client. Zero keeps the SDK default.
	Timeout time.Duration

	// TokenEstimator defaults to SimpleTokenEstimator.
	TokenEstimator TokenEstimator

	// Middleware is applied in order, the first entry outermost.
	Middleware []Middleware
}

// Middleware wraps a CoreLLM to add a cross-cutting concern.
type Middleware func(CoreLLM) CoreLLM

// Client adapts a middleware-wrapped CoreLLM to ports.LLMClient.
type Client struct {
	provider  string
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient creates a client for providerType ("openai", "azure",
// "anthropic" or "google") and assembles its middleware chain.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	return newClientWithCore(providerType, core, config), nil
}

func newClientWithCore(providerType string, core CoreLLM, config ClientConfig) *Client {
	// Reverse order so the first middleware ends up outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = &SimpleTokenEstimator{}
	}

	return &Client{provider: providerType, core: core, estimator: estimator}
}

// Complete sends prompt through the middleware chain. Failures are returned
// as *ports.CompletionError so callers can test retryability and match the
// ports sentinels with errors.Is.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage is Complete plus the token counts reported by the
// provider, or estimated when the provider reports none.
func (c *Client) CompleteWithUsage(
	ctx context.Context,
	prompt string,
	options map[string]any,
) (string, int, int, error) {
	response, in, out, err := c.core.DoRequest(ctx, prompt, options)
	if err != nil {
		return "", 0, 0, c.wrapError(err, options)
	}
	return response, in, out, nil
}

func (c *Client) wrapError(err error, options map[string]any) error {
	var cerr *ports.CompletionError
	if errors.As(err, &cerr) {
		return err
	}
	role, _ := options["role"].(string)
	return ports.NewCompletionError(c.core.GetModel(), role, err)
}

// EstimateTokens returns the configured estimator's count for text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the model of the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// Provider returns the provider type the client was built for.
func (c *Client) Provider() string { return c.provider }

// SimpleTokenEstimator assumes roughly four bytes per token.
type SimpleTokenEstimator struct{}

// EstimateTokens rounds up so any non-empty text counts at least one token.
func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory makes a provider available to NewClient. Providers
// in this package register themselves in init.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// Providers lists the registered provider types.
func Providers() []string {
	out := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		out = append(out, name)
	}
	return out
}
