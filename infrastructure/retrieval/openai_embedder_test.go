package retrieval

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingsAPI struct {
	calls    [][]string
	failures []error
}

func (f *fakeEmbeddingsAPI) CreateEmbeddings(_ context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	req := conv.Convert()
	inputs := req.Input.([]string)
	f.calls = append(f.calls, inputs)
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return openai.EmbeddingResponse{}, err
	}

	// Results come back in reverse order to exercise index placement.
	var resp openai.EmbeddingResponse
	for i := len(inputs) - 1; i >= 0; i-- {
		resp.Data = append(resp.Data, openai.Embedding{
			Index:     i,
			Embedding: []float32{float32(len(inputs[i])), 1},
		})
	}
	return resp, nil
}

// TestOpenAIEmbedder_Batches verifies batching and result ordering.
func TestOpenAIEmbedder_Batches(t *testing.T) {
	api := &fakeEmbeddingsAPI{}
	e, err := NewOpenAIEmbedder(api, OpenAIEmbedderConfig{Name: "azure", Model: "text-embedding-3-small", BatchSize: 2})
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, api.calls)
	assert.Equal(t, [][]float32{{1, 1}, {2, 1}, {3, 1}}, vecs)
	assert.Equal(t, "azure", e.Name())
	assert.NoError(t, e.Prepare(context.Background(), nil))
}

// TestOpenAIEmbedder_RetriesThrottling verifies retry on 429 and 5xx only.
func TestOpenAIEmbedder_RetriesThrottling(t *testing.T) {
	api := &fakeEmbeddingsAPI{failures: []error{
		&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"},
		&openai.RequestError{HTTPStatusCode: http.StatusBadGateway},
	}}
	e, err := NewOpenAIEmbedder(api, OpenAIEmbedderConfig{Model: "m", MaxRetries: 3, BaseDelay: time.Millisecond})
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"q"})

	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Len(t, api.calls, 3)
}

// TestOpenAIEmbedder_PermanentError verifies that client errors are not
// retried.
func TestOpenAIEmbedder_PermanentError(t *testing.T) {
	api := &fakeEmbeddingsAPI{failures: []error{
		&openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad input"},
	}}
	e, err := NewOpenAIEmbedder(api, OpenAIEmbedderConfig{Model: "m", MaxRetries: 3, BaseDelay: time.Millisecond})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"q"})

	assert.ErrorContains(t, err, "bad input")
	assert.Len(t, api.calls, 1)
}

// TestNewOpenAIEmbedder_Validation verifies required fields.
func TestNewOpenAIEmbedder_Validation(t *testing.T) {
	_, err := NewOpenAIEmbedder(nil, OpenAIEmbedderConfig{Model: "m"})
	assert.Error(t, err)

	_, err = NewOpenAIEmbedder(&fakeEmbeddingsAPI{}, OpenAIEmbedderConfig{})
	assert.Error(t, err)
}
