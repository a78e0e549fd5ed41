package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultLocalDimension is the vector size LocalEmbedder produces unless
// configured otherwise.
const DefaultLocalDimension = 256

var tokenRe = regexp.MustCompile(`\p{L}+|\p{N}+`)

// LocalEmbedder is an offline, deterministic embedder. It hashes tokens
// into a fixed number of buckets and L2-normalizes the counts. The vectors
// are crude but stable, which is what tests and network-free deployments
// need.
type LocalEmbedder struct {
	dimension int
}

var _ Embedder = (*LocalEmbedder)(nil)

// NewLocalEmbedder creates a local embedder with the given dimension.
// A non-positive dimension falls back to DefaultLocalDimension.
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &LocalEmbedder{dimension: dimension}
}

// Dimension returns the vector size this embedder produces.
func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

// EmbedQuery embeds a single query string.
func (e *LocalEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

// EmbedDocuments embeds multiple documents.
func (e *LocalEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *LocalEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, token := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%e.dimension]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
