package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestRecord(id, domain, contextType string, embedding []float32, updatedAt time.Time) Record {
	return Record{
		ID:          id,
		Domain:      domain,
		ContextType: contextType,
		Embedding:   embedding,
		Data:        map[string]any{"domain": domain},
		UpdatedAt:   updatedAt,
	}
}

func TestMemoryStoreQueryOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	assert.NoError(t, store.Upsert(ctx, newTestRecord("a", "a.com", "extraction", []float32{1, 0}, now)))
	assert.NoError(t, store.Upsert(ctx, newTestRecord("b", "b.com", "extraction", []float32{0.7, 0.7}, now)))
	assert.NoError(t, store.Upsert(ctx, newTestRecord("c", "c.com", "extraction", []float32{0, 1}, now)))

	matches, err := store.Query(ctx, []float32{1, 0}, Filter{ContextType: "extraction"}, 10)
	assert.NoError(t, err)
	assert.Len(t, matches, 3)
	assert.Equal(t, "a.com", matches[0].Record.Domain)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i].Similarity, matches[i-1].Similarity)
	}
}

func TestMemoryStoreTopKLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		assert.NoError(t, store.Upsert(ctx, newTestRecord(id, id+".com", "extraction", []float32{1, 1}, time.Now())))
	}

	matches, err := store.Query(ctx, []float32{1, 1}, Filter{}, 2)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMemoryStoreTieBrokenByRecency(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Identical vectors, different ages.
	assert.NoError(t, store.Upsert(ctx, newTestRecord("old", "old.com", "extraction", []float32{1, 0}, old)))
	assert.NoError(t, store.Upsert(ctx, newTestRecord("new", "new.com", "extraction", []float32{1, 0}, recent)))

	matches, err := store.Query(ctx, []float32{1, 0}, Filter{}, 2)
	assert.NoError(t, err)
	assert.Equal(t, "new.com", matches[0].Record.Domain)
	assert.Equal(t, "old.com", matches[1].Record.Domain)
}

func TestMemoryStoreFilterExcludesDomain(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.NoError(t, store.Upsert(ctx, newTestRecord("a", "self.com", "extraction", []float32{1, 0}, time.Now())))
	assert.NoError(t, store.Upsert(ctx, newTestRecord("b", "other.com", "extraction", []float32{1, 0}, time.Now())))

	matches, err := store.Query(ctx, []float32{1, 0}, Filter{ExcludeDomain: "self.com"}, 10)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, "other.com", matches[0].Record.Domain)
}

func TestMemoryStoreUpsertReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := newTestRecord("a", "a.com", "extraction", []float32{1, 0}, time.Now())
	assert.NoError(t, store.Upsert(ctx, rec))

	rec.Domain = "renamed.com"
	assert.NoError(t, store.Upsert(ctx, rec))
	assert.Equal(t, 1, store.Len())

	matches, err := store.Query(ctx, []float32{1, 0}, Filter{}, 1)
	assert.NoError(t, err)
	assert.Equal(t, "renamed.com", matches[0].Record.Domain)
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	store := NewMemoryStore()
	err := store.Upsert(context.Background(), Record{Domain: "a.com"})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
