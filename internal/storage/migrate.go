package storage

import (
	"context"
	"fmt"
)

// Schema statements shared by both drivers. Types are kept to the portable
// subset: uuid/timestamps as TEXT on SQLite, native types on Postgres.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		manufacturer_article_no TEXT NOT NULL,
		manufacturer TEXT NOT NULL DEFAULT '',
		supplier_id TEXT NOT NULL DEFAULT '',
		supplier_article_no TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		unit_price TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT 'EUR',
		requires_review INTEGER NOT NULL DEFAULT 0,
		review_notes TEXT NOT NULL DEFAULT '',
		source_batch_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_manufacturer_article_no
		ON products (manufacturer_article_no)
		WHERE manufacturer_article_no <> ''`,
	`CREATE TABLE IF NOT EXISTS ingestion_batches (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		blob_location TEXT NOT NULL DEFAULT '',
		supplier_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		total_items INTEGER NOT NULL DEFAULT 0,
		created_count INTEGER NOT NULL DEFAULT 0,
		skipped_duplicate INTEGER NOT NULL DEFAULT 0,
		flagged_conflict INTEGER NOT NULL DEFAULT 0,
		skipped_no_key INTEGER NOT NULL DEFAULT 0,
		parse_failures INTEGER NOT NULL DEFAULT 0,
		success_rate REAL NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingestion_batches_started_at
		ON ingestion_batches (started_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		manufacturer_article_no TEXT NOT NULL,
		manufacturer TEXT NOT NULL DEFAULT '',
		supplier_id TEXT NOT NULL DEFAULT '',
		supplier_article_no TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'EUR',
		requires_review BOOLEAN NOT NULL DEFAULT FALSE,
		review_notes TEXT NOT NULL DEFAULT '',
		source_batch_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_manufacturer_article_no
		ON products (manufacturer_article_no)
		WHERE manufacturer_article_no <> ''`,
	`CREATE TABLE IF NOT EXISTS ingestion_batches (
		id UUID PRIMARY KEY,
		filename TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		blob_location TEXT NOT NULL DEFAULT '',
		supplier_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		total_items INTEGER NOT NULL DEFAULT 0,
		created_count INTEGER NOT NULL DEFAULT 0,
		skipped_duplicate INTEGER NOT NULL DEFAULT 0,
		flagged_conflict INTEGER NOT NULL DEFAULT 0,
		skipped_no_key INTEGER NOT NULL DEFAULT 0,
		parse_failures INTEGER NOT NULL DEFAULT 0,
		success_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingestion_batches_started_at
		ON ingestion_batches (started_at)`,
}

// Migrate applies the schema for the given driver ("sqlite" or "postgres").
// Statements are idempotent; running Migrate on an up-to-date database is a
// no-op.
func Migrate(ctx context.Context, db DB, driver string) error {
	var stmts []string
	switch driver {
	case "sqlite":
		stmts = sqliteSchema
	case "postgres":
		stmts = postgresSchema
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
