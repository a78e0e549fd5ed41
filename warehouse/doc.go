// Package warehouse persists analysis results to a PostgreSQL star
// schema.
//
// dim_competitor holds one row per domain; every analysis run appends a
// fact_snapshot row with the axis scores, the per-attribute breakdown
// and the generated insights as JSONB. dim_attribute and dim_source are
// reference tables seeded once from the scoring catalog and the known
// provenance channels.
//
// The Writer talks to the database through the DBPool interface so
// tests can substitute pgxmock for a real pgxpool.
package warehouse
