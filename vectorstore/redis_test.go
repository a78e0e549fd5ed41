package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(RedisOptions{Addr: mr.Addr()})
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	assert.NoError(t, store.Upsert(ctx, newTestRecord("a", "a.com", "extraction", []float32{1, 0}, now)))
	assert.NoError(t, store.Upsert(ctx, newTestRecord("b", "b.com", "extraction", []float32{0, 1}, now)))
	assert.NoError(t, store.Upsert(ctx, newTestRecord("c", "c.com", "insight", []float32{1, 0}, now)))

	// Type filter only sees extraction records.
	matches, err := store.Query(ctx, []float32{1, 0}, Filter{ContextType: "extraction"}, 10)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "a.com", matches[0].Record.Domain)
	assert.Equal(t, map[string]any{"domain": "a.com"}, matches[0].Record.Data)

	// Unfiltered query sees everything.
	matches, err = store.Query(ctx, []float32{1, 0}, Filter{}, 10)
	assert.NoError(t, err)
	assert.Len(t, matches, 3)

	// topK truncates.
	matches, err = store.Query(ctx, []float32{1, 0}, Filter{}, 1)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRedisStoreUpsertReplaces(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(RedisOptions{Addr: mr.Addr(), Prefix: "test:"})
	defer store.Close()

	ctx := context.Background()
	rec := newTestRecord("a", "a.com", "extraction", []float32{1, 0}, time.Now())
	assert.NoError(t, store.Upsert(ctx, rec))

	rec.Embedding = []float32{0, 1}
	assert.NoError(t, store.Upsert(ctx, rec))

	matches, err := store.Query(ctx, []float32{0, 1}, Filter{}, 10)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestRedisStoreEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(RedisOptions{Addr: mr.Addr()})
	defer store.Close()

	matches, err := store.Query(context.Background(), []float32{1, 0}, Filter{ContextType: "extraction"}, 5)
	assert.NoError(t, err)
	assert.Empty(t, matches)
}
