package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures the OpenAI-compatible embedding client.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string        // Default https://api.openai.com/v1; point at an Ollama server for local models
	Model   string        // Default text-embedding-3-small
	Timeout time.Duration // Per-request timeout, default 30s
}

// OpenAIEmbedder implements Embedder against any OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates a new embedder from the given options.
func NewOpenAIEmbedder(opts OpenAIOptions) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	model := opts.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

// EmbedQuery embeds a single query string.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds a batch of documents in a single request.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
