package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultAzureAPIVersion is used when an azure config omits APIVersion.
const DefaultAzureAPIVersion = "2024-06-01"

func init() {
	RegisterProviderFactory("openai", newOpenAIProvider)
	RegisterProviderFactory("azure", newAzureProvider)
}

// chatCompleter is the slice of *openai.Client the provider uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// openAIProvider serves both OpenAI and Azure OpenAI; the two differ only in
// client configuration.
type openAIProvider struct {
	BaseProvider
	name            string
	client          chatCompleter
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

func newOpenAIProvider(config ClientConfig) (CoreLLM, error) {
	return newChatProvider("openai", config)
}

func newAzureProvider(config ClientConfig) (CoreLLM, error) {
	return newChatProvider("azure", config)
}

func newChatProvider(name string, config ClientConfig) (CoreLLM, error) {
	client, err := NewOpenAIAPI(name, config)
	if err != nil {
		return nil, err
	}
	return &openAIProvider{
		BaseProvider:    BaseProvider{model: config.Model},
		name:            name,
		client:          client,
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: name},
	}, nil
}

// NewOpenAIAPI builds a go-openai client for provider "openai" or "azure".
// The embedder shares it so both completions and embeddings use the same
// endpoint and credentials handling.
func NewOpenAIAPI(provider string, config ClientConfig) (*openai.Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	baseURL, err := ValidateBaseURL(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	var cc openai.ClientConfig
	switch provider {
	case "openai":
		cc = openai.DefaultConfig(config.APIKey)
		if baseURL != "" {
			cc.BaseURL = baseURL
		}
	case "azure":
		if baseURL == "" {
			return nil, errors.New("azure requires a BaseURL")
		}
		cc = openai.DefaultAzureConfig(config.APIKey, baseURL)
		cc.APIVersion = config.APIVersion
		if cc.APIVersion == "" {
			cc.APIVersion = DefaultAzureAPIVersion
		}
		// Model names are deployment names; do not rewrite them.
		cc.AzureModelMapperFunc = func(model string) string { return model }
	default:
		return nil, fmt.Errorf("unsupported openai-compatible provider: %s", provider)
	}

	if timeout := ValidateTimeout(config.Timeout); timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: timeout}
	}

	return openai.NewClientWithConfig(cc), nil
}

func (p *openAIProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	resp, err := p.client.CreateChatCompletion(ctx, p.buildChatCompletionRequest(prompt, options))
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, 0, NewProviderError(p.name, ErrorTypeUnknown, 0, "", ErrNoResponseChoice)
	}

	content := resp.Choices[0].Message.Content
	tokensIn := p.tokenCounter.GetTokenCount(resp.Usage.PromptTokens, prompt)
	tokensOut := p.tokenCounter.GetTokenCount(resp.Usage.CompletionTokens, content)

	return content, tokensIn, tokensOut, nil
}

func (p *openAIProvider) buildChatCompletionRequest(prompt string, options RequestOptions) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if options.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: options.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:     options.Model,
		Messages:  messages,
		MaxTokens: options.MaxTokens,
	}
	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}
	if v, ok := options.Extra["presence_penalty"]; ok {
		if f, ok := SafeFloat32(v); ok {
			req.PresencePenalty = float32(ClampFloat64(float64(f), MinPenalty, MaxPenalty))
		}
	}
	if v, ok := options.Extra["frequency_penalty"]; ok {
		if f, ok := SafeFloat32(v); ok {
			req.FrequencyPenalty = float32(ClampFloat64(float64(f), MinPenalty, MaxPenalty))
		}
	}
	return req
}

func (p *openAIProvider) handleError(err error) error {
	if isContextError(err) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return p.errorClassifier.ClassifyHTTPError(reqErr.HTTPStatusCode, "request failed", err)
	}

	return NewProviderError(p.name, ErrorTypeNetwork, 0, "request failed", err)
}
