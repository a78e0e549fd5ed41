package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteOptions{Path: ":memory:"})
	assert.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	assert.NoError(t, store.Upsert(ctx, newTestRecord("a", "a.com", "extraction", []float32{1, 0}, now)))
	assert.NoError(t, store.Upsert(ctx, newTestRecord("b", "b.com", "extraction", []float32{0, 1}, now)))
	assert.NoError(t, store.Upsert(ctx, newTestRecord("c", "c.com", "insight", []float32{1, 0}, now)))

	matches, err := store.Query(ctx, []float32{1, 0}, Filter{ContextType: "extraction"}, 10)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "a.com", matches[0].Record.Domain)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	assert.Equal(t, map[string]any{"domain": "a.com"}, matches[0].Record.Data)
}

func TestSQLiteStoreUpsertReplaces(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteOptions{Path: ":memory:", TableName: "snapshots"})
	assert.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	rec := newTestRecord("a", "a.com", "extraction", []float32{1, 0}, time.Now().UTC())
	assert.NoError(t, store.Upsert(ctx, rec))

	rec.Domain = "renamed.com"
	assert.NoError(t, store.Upsert(ctx, rec))

	matches, err := store.Query(ctx, []float32{1, 0}, Filter{}, 10)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, "renamed.com", matches[0].Record.Domain)
}

func TestVectorEncodingRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75, 0}
	assert.Equal(t, vec, decodeVector(encodeVector(vec)))
	assert.Empty(t, decodeVector(nil))
}
