package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the redis-backed store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "compintel:"
	TTL      time.Duration // Record expiration, default 0 (keep forever)
}

// RedisStore keeps records as JSON values and maintains a per-context-type
// index set so queries only fetch candidate records. Similarity is
// computed client-side; the store stays a plain key-value deployment.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new redis-backed store.
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "compintel:"
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisStore) recordKey(id string) string {
	return fmt.Sprintf("%srecord:%s", s.prefix, id)
}

func (s *RedisStore) typeKey(contextType string) string {
	return fmt.Sprintf("%stype:%s", s.prefix, contextType)
}

func (s *RedisStore) allKey() string {
	return s.prefix + "ids"
}

// Upsert stores the record and indexes it by context type.
func (s *RedisStore) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.recordKey(rec.ID), data, s.ttl)
	pipe.SAdd(ctx, s.allKey(), rec.ID)
	if rec.ContextType != "" {
		pipe.SAdd(ctx, s.typeKey(rec.ContextType), rec.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.typeKey(rec.ContextType), s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert record in redis: %w", err)
	}
	return nil
}

// Query fetches candidates from the index and ranks them client-side.
func (s *RedisStore) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	indexKey := s.allKey()
	if filter.ContextType != "" {
		indexKey = s.typeKey(filter.ContextType)
	}

	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate records: %w", err)
	}
	if len(ids) == 0 {
		return []Match{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}

	// MGet returns nil for expired members still present in the index.
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate records: %w", err)
	}

	matches := make([]Match, 0, len(values))
	for _, value := range values {
		str, ok := value.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			continue
		}
		if !filter.Matches(rec) {
			continue
		}
		matches = append(matches, Match{
			Record:     rec,
			Similarity: CosineSimilarity(vector, rec.Embedding),
		})
	}

	return rankMatches(matches, topK), nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
