// Package embedding converts free text into fixed-length vectors for the
// retrieval layer.
//
// Three implementations are provided: OpenAIEmbedder for any
// OpenAI-compatible endpoint (including a local Ollama server),
// LangChainEmbedder adapting a langchaingo embeddings.Embedder, and
// LocalEmbedder, a deterministic offline hasher used in tests and
// degraded deployments.
package embedding
