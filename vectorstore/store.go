package vectorstore

import (
	"context"
	"math"
	"sort"
	"time"
)

// Record is one stored competitor snapshot with its embedding.
type Record struct {
	ID          string         `json:"id"`
	Domain      string         `json:"domain"`
	ContextType string         `json:"context_type"`
	Embedding   []float32      `json:"embedding"`
	Data        map[string]any `json:"data,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Match is one query hit, ordered by descending similarity.
type Match struct {
	Record     Record
	Similarity float64
}

// Filter restricts a query to a subset of stored records. Zero values
// match everything.
type Filter struct {
	ContextType   string
	ExcludeDomain string
}

// Matches reports whether the record passes the filter.
func (f Filter) Matches(rec Record) bool {
	if f.ContextType != "" && rec.ContextType != f.ContextType {
		return false
	}
	if f.ExcludeDomain != "" && rec.Domain == f.ExcludeDomain {
		return false
	}
	return true
}

// Store persists records and answers similarity queries.
type Store interface {
	// Upsert inserts the record or replaces the one with the same ID.
	Upsert(ctx context.Context, rec Record) error
	// Query returns the topK records passing the filter, ordered by
	// descending cosine similarity to the vector. Ties are broken by the
	// most recently updated record.
	Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error)
	// Close releases backend resources.
	Close() error
}

// CosineSimilarity computes the cosine similarity of two vectors.
// Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankMatches orders matches by descending similarity, most recent first
// on equal similarity, and truncates to topK.
func rankMatches(matches []Match, topK int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Record.UpdatedAt.After(matches[j].Record.UpdatedAt)
	})
	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
