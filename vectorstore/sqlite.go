package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps records in a local sqlite database. Vectors are
// stored as little-endian float32 blobs and scanned brute-force at query
// time, which is adequate for the record counts one deployment holds.
type SQLiteStore struct {
	db        *sql.DB
	tableName string
}

var _ Store = (*SQLiteStore)(nil)

// SQLiteOptions configures the sqlite-backed store.
type SQLiteOptions struct {
	Path      string // Database file, or ":memory:"
	TableName string // Default "vector_records"
}

// NewSQLiteStore opens (and initializes) a sqlite-backed store.
func NewSQLiteStore(opts SQLiteOptions) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "vector_records"
	}

	s := &SQLiteStore{db: db, tableName: tableName}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			domain TEXT NOT NULL,
			context_type TEXT NOT NULL,
			embedding BLOB NOT NULL,
			data TEXT,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_context_type ON %s (context_type);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Upsert inserts or replaces a record by ID.
func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal record data: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, domain, context_type, embedding, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			domain = excluded.domain,
			context_type = excluded.context_type,
			embedding = excluded.embedding,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.Domain, rec.ContextType, encodeVector(rec.Embedding), string(dataJSON), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// Query scans the (optionally type-filtered) table and ranks client-side.
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	query := fmt.Sprintf("SELECT id, domain, context_type, embedding, data, updated_at FROM %s", s.tableName)
	var args []any
	if filter.ContextType != "" {
		query += " WHERE context_type = ?"
		args = append(args, filter.ContextType)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var rec Record
		var blob []byte
		var dataJSON sql.NullString
		var updatedAt time.Time
		if err := rows.Scan(&rec.ID, &rec.Domain, &rec.ContextType, &blob, &dataJSON, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Embedding = decodeVector(blob)
		rec.UpdatedAt = updatedAt
		if dataJSON.Valid && dataJSON.String != "" {
			if err := json.Unmarshal([]byte(dataJSON.String), &rec.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal record data: %w", err)
			}
		}
		if !filter.Matches(rec) {
			continue
		}
		matches = append(matches, Match{
			Record:     rec,
			Similarity: CosineSimilarity(vector, rec.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return rankMatches(matches, topK), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeVector packs a float32 vector into a little-endian blob.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a little-endian blob into a float32 vector.
func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
