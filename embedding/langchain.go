package embedding

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
)

// LangChainEmbedder adapts a langchaingo embeddings.Embedder to the
// Embedder interface.
type LangChainEmbedder struct {
	embedder embeddings.Embedder
}

var _ Embedder = (*LangChainEmbedder)(nil)

// NewLangChainEmbedder creates a new adapter for langchaingo embedders.
func NewLangChainEmbedder(embedder embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{embedder: embedder}
}

// EmbedQuery embeds a single query string.
func (l *LangChainEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embedding, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	result := make([]float32, len(embedding))
	for i, val := range embedding {
		result[i] = float32(val)
	}
	return result, nil
}

// EmbedDocuments embeds multiple documents.
func (l *LangChainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	result := make([][]float32, len(vectors))
	for i, embedding := range vectors {
		result[i] = make([]float32, len(embedding))
		for j, val := range embedding {
			result[i][j] = float32(val)
		}
	}
	return result, nil
}
