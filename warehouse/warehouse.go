package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/compintel/log"
	"github.com/smallnest/compintel/model"
)

// ErrPersistence marks database failures. Callers that computed scores
// and insights before persisting can keep using them after this error.
var ErrPersistence = errors.New("warehouse persistence failed")

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Options configuration for the warehouse connection.
type Options struct {
	ConnString string
	Logger     log.Logger
}

// Writer persists competitor analyses.
type Writer struct {
	pool   DBPool
	logger log.Logger
}

// NewWriter connects a pgx pool and returns a Writer.
func NewWriter(ctx context.Context, opts Options) (*Writer, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewWriterWithPool(pool, opts.Logger), nil
}

// NewWriterWithPool creates a Writer over an existing pool. Useful for
// testing with mocks.
func NewWriterWithPool(pool DBPool, logger log.Logger) *Writer {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Writer{pool: pool, logger: logger}
}

// Close closes the connection pool.
func (w *Writer) Close() {
	w.pool.Close()
}

// InitSchema creates the warehouse tables if they don't exist.
func (w *Writer) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS dim_competitor (
			id BIGSERIAL PRIMARY KEY,
			domain TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			url TEXT,
			segmento TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS dim_attribute (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			dimension TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS dim_source (
			name TEXT PRIMARY KEY,
			url TEXT,
			description TEXT,
			source_type TEXT NOT NULL,
			reliability_score DOUBLE PRECISION NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE TABLE IF NOT EXISTS dim_product (
			id BIGSERIAL PRIMARY KEY,
			competitor_id BIGINT NOT NULL REFERENCES dim_competitor(id),
			name TEXT NOT NULL,
			price DOUBLE PRECISION,
			currency TEXT,
			period TEXT
		);
		CREATE TABLE IF NOT EXISTS fact_snapshot (
			id BIGSERIAL PRIMARY KEY,
			competitor_id BIGINT NOT NULL REFERENCES dim_competitor(id),
			x_score DOUBLE PRECISION,
			y_score DOUBLE PRECISION,
			attributes JSONB NOT NULL,
			insights JSONB,
			sources TEXT[],
			analyzed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_fact_snapshot_competitor ON fact_snapshot (competitor_id);
	`
	if _, err := w.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveCompetitor upserts the competitor dimension row, appends one fact
// snapshot and replaces the priced products. Returns the competitor id.
func (w *Writer) SaveCompetitor(ctx context.Context, rec *model.CompetitorRecord, scores *model.ScoreSet, insights *model.InsightSet) (int64, error) {
	if rec == nil || rec.Domain == "" {
		return 0, fmt.Errorf("%w: record has no domain", ErrPersistence)
	}

	var competitorID int64
	err := w.pool.QueryRow(ctx, `
		INSERT INTO dim_competitor (domain, name, url, segmento, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (domain) DO UPDATE SET
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			segmento = EXCLUDED.segmento,
			updated_at = now()
		RETURNING id
	`, rec.Domain, rec.Name, rec.URL, rec.Segmento).Scan(&competitorID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to upsert competitor %s: %v", ErrPersistence, rec.Domain, err)
	}

	attributesJSON, err := json.Marshal(scores.Attributes)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to marshal attributes: %v", ErrPersistence, err)
	}
	var insightsJSON []byte
	if insights != nil {
		if insightsJSON, err = json.Marshal(insights); err != nil {
			return 0, fmt.Errorf("%w: failed to marshal insights: %v", ErrPersistence, err)
		}
	}

	_, err = w.pool.Exec(ctx, `
		INSERT INTO fact_snapshot (competitor_id, x_score, y_score, attributes, insights, sources, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, competitorID, scores.XScore, scores.YScore, attributesJSON, insightsJSON, rec.Sources, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert snapshot for %s: %v", ErrPersistence, rec.Domain, err)
	}

	if err := w.saveProducts(ctx, competitorID, rec); err != nil {
		return 0, err
	}

	w.logger.Info("saved analysis for %s (competitor id %d)", rec.Domain, competitorID)
	return competitorID, nil
}

// saveProducts replaces the competitor's priced products with the ones
// from the current record.
func (w *Writer) saveProducts(ctx context.Context, competitorID int64, rec *model.CompetitorRecord) error {
	if rec.Pricing == nil {
		return nil
	}
	if _, err := w.pool.Exec(ctx, `DELETE FROM dim_product WHERE competitor_id = $1`, competitorID); err != nil {
		return fmt.Errorf("%w: failed to clear products for %s: %v", ErrPersistence, rec.Domain, err)
	}
	for _, product := range rec.Pricing.Products {
		_, err := w.pool.Exec(ctx, `
			INSERT INTO dim_product (competitor_id, name, price, currency, period)
			VALUES ($1, $2, $3, $4, $5)
		`, competitorID, product.Name, product.Price, product.Currency, product.Period)
		if err != nil {
			return fmt.Errorf("%w: failed to insert product %q for %s: %v", ErrPersistence, product.Name, rec.Domain, err)
		}
	}
	return nil
}

// SeedCatalog upserts the scoring catalog into dim_attribute.
func (w *Writer) SeedCatalog(ctx context.Context, catalog []model.AttributeDefinition) error {
	for _, def := range catalog {
		_, err := w.pool.Exec(ctx, `
			INSERT INTO dim_attribute (code, name, description, dimension)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				dimension = EXCLUDED.dimension
		`, def.Code, def.Name, def.Description, string(def.Axis))
		if err != nil {
			return fmt.Errorf("%w: failed to seed attribute %s: %v", ErrPersistence, def.Code, err)
		}
	}
	w.logger.Info("seeded %d catalog attributes", len(catalog))
	return nil
}

// SourceSeed is one provenance channel row for dim_source.
type SourceSeed struct {
	Name        string
	URL         string
	Description string
	SourceType  string
	Reliability float64
}

// DefaultSourceSeeds returns the known provenance channels with their
// reliability weights.
func DefaultSourceSeeds() []SourceSeed {
	return []SourceSeed{
		{
			Name:        "AI Agent Scraper",
			URL:         "https://github.com/smallnest/compintel",
			Description: "Automated web scraping agent that extracts competitor data using AI-powered analysis.",
			SourceType:  "automated",
			Reliability: 0.85,
		},
		{
			Name:        "Manual Entry",
			Description: "Manual data entry by the research team, used for verified information and corrections.",
			SourceType:  "manual",
			Reliability: 1.0,
		},
		{
			Name:        "API Import",
			Description: "Direct API integration with third-party competitor data providers.",
			SourceType:  "api",
			Reliability: 0.90,
		},
	}
}

// SeedSources upserts the provenance channels into dim_source.
func (w *Writer) SeedSources(ctx context.Context, seeds []SourceSeed) error {
	for _, seed := range seeds {
		_, err := w.pool.Exec(ctx, `
			INSERT INTO dim_source (name, url, description, source_type, reliability_score, is_active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			ON CONFLICT (name) DO UPDATE SET
				url = EXCLUDED.url,
				description = EXCLUDED.description,
				source_type = EXCLUDED.source_type,
				reliability_score = EXCLUDED.reliability_score,
				is_active = TRUE
		`, seed.Name, seed.URL, seed.Description, seed.SourceType, seed.Reliability)
		if err != nil {
			return fmt.Errorf("%w: failed to seed source %q: %v", ErrPersistence, seed.Name, err)
		}
	}
	w.logger.Info("seeded %d sources", len(seeds))
	return nil
}
