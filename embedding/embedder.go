package embedding

import "context"

// Embedder generates embeddings for text. Implementations must be
// deterministic for identical input within a single deployment.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds a batch of documents.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
