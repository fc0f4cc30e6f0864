package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	// ErrNotFound indicates no record exists for the given key or ID.
	ErrNotFound = errors.New("record not found")
	// ErrKeyConflict indicates a create collided with an existing record
	// holding the same manufacturer article number. Callers are expected to
	// re-fetch and treat the record as existing; this is the documented
	// safety net for concurrent uploads of the same invoice.
	ErrKeyConflict = errors.New("manufacturer article number already exists")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ProductStore is the narrow persistence contract the deduplication engine
// depends on. The implementation must enforce uniqueness of non-empty
// manufacturer article numbers atomically and surface violations as
// ErrKeyConflict.
type ProductStore interface {
	FindByKey(ctx context.Context, manufacturerArticleNo string) (*ProductRecord, error)
	Create(ctx context.Context, record *ProductRecord) error
	UpdateReviewStatus(ctx context.Context, id uuid.UUID, requiresReview bool, notes string) error
}

// BatchStore persists per-run batch bookkeeping.
type BatchStore interface {
	Create(ctx context.Context, batch *IngestionBatch) error
	Finish(ctx context.Context, batch *IngestionBatch) error
}

// ProductRepository handles product record persistence over SQL.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, manufacturer_article_no, manufacturer, supplier_id, supplier_article_no,
	category, display_name, unit_price, currency, requires_review, review_notes,
	source_batch_id, created_at, updated_at`

// Create inserts a new product record. A unique-constraint violation on the
// manufacturer article number is returned as ErrKeyConflict.
func (r *ProductRepository) Create(ctx context.Context, record *ProductRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.ManufacturerArticleNo, record.Manufacturer, record.SupplierID,
		record.SupplierArticleNo, record.Category, record.DisplayName,
		record.UnitPrice.String(), record.Currency, record.RequiresReview, record.ReviewNotes,
		uuidPtr(record.SourceBatchID), record.CreatedAt, record.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create product %q: %w", record.ManufacturerArticleNo, ErrKeyConflict)
	}
	return err
}

// FindByKey retrieves a product record by its manufacturer article number.
func (r *ProductRepository) FindByKey(ctx context.Context, manufacturerArticleNo string) (*ProductRecord, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products WHERE manufacturer_article_no = $1
	`
	record, err := scanProduct(r.db.QueryRowContext(ctx, query, manufacturerArticleNo))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return record, err
}

// UpdateReviewStatus flags or clears human review on a single record. This is
// the only mutation the pipeline performs on existing products.
func (r *ProductRepository) UpdateReviewStatus(ctx context.Context, id uuid.UUID, requiresReview bool, notes string) error {
	query := `
		UPDATE products SET requires_review = $1, review_notes = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, requiresReview, notes, time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRequiringReview lists records flagged for human review.
func (r *ProductRepository) ListRequiringReview(ctx context.Context) ([]*ProductRecord, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE requires_review
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ProductRecord
	for rows.Next() {
		record, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// BatchRepository handles ingestion batch persistence over SQL.
type BatchRepository struct {
	db DB
}

// NewBatchRepository creates a new batch repository.
func NewBatchRepository(db DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a new batch row in running state.
func (r *BatchRepository) Create(ctx context.Context, batch *IngestionBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	if batch.StartedAt.IsZero() {
		batch.StartedAt = time.Now()
	}
	if batch.Status == "" {
		batch.Status = BatchStatusRunning
	}

	query := `
		INSERT INTO ingestion_batches (id, filename, sha256, blob_location, supplier_id, status,
			total_items, created_count, skipped_duplicate, flagged_conflict, skipped_no_key,
			parse_failures, success_rate, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		batch.ID, batch.Filename, batch.SHA256, batch.BlobLocation, batch.SupplierID, batch.Status,
		batch.TotalItems, batch.Created, batch.SkippedDuplicate, batch.FlaggedConflict,
		batch.SkippedNoKey, batch.ParseFailures, batch.SuccessRate, batch.StartedAt, batch.CompletedAt,
	)
	return err
}

// Finish writes the final counts and status for a batch.
func (r *BatchRepository) Finish(ctx context.Context, batch *IngestionBatch) error {
	now := time.Now()
	batch.CompletedAt = &now

	query := `
		UPDATE ingestion_batches SET supplier_id = $1, status = $2, total_items = $3,
			created_count = $4, skipped_duplicate = $5, flagged_conflict = $6,
			skipped_no_key = $7, parse_failures = $8, success_rate = $9, completed_at = $10
		WHERE id = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		batch.SupplierID, batch.Status, batch.TotalItems, batch.Created, batch.SkippedDuplicate,
		batch.FlaggedConflict, batch.SkippedNoKey, batch.ParseFailures, batch.SuccessRate,
		batch.CompletedAt, batch.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecent lists the most recent batches, newest first.
func (r *BatchRepository) ListRecent(ctx context.Context, limit int) ([]*IngestionBatch, error) {
	query := `
		SELECT id, filename, sha256, blob_location, supplier_id, status, total_items,
			created_count, skipped_duplicate, flagged_conflict, skipped_no_key,
			parse_failures, success_rate, started_at, completed_at
		FROM ingestion_batches
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*IngestionBatch
	for rows.Next() {
		batch := &IngestionBatch{}
		if err := rows.Scan(
			&batch.ID, &batch.Filename, &batch.SHA256, &batch.BlobLocation, &batch.SupplierID,
			&batch.Status, &batch.TotalItems, &batch.Created, &batch.SkippedDuplicate,
			&batch.FlaggedConflict, &batch.SkippedNoKey, &batch.ParseFailures,
			&batch.SuccessRate, &batch.StartedAt, &batch.CompletedAt,
		); err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (*ProductRecord, error) {
	record := &ProductRecord{}
	var price string
	var sourceBatch sql.NullString
	if err := s.Scan(
		&record.ID, &record.ManufacturerArticleNo, &record.Manufacturer, &record.SupplierID,
		&record.SupplierArticleNo, &record.Category, &record.DisplayName,
		&price, &record.Currency, &record.RequiresReview, &record.ReviewNotes,
		&sourceBatch, &record.CreatedAt, &record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse stored unit price %q: %w", price, err)
	}
	record.UnitPrice = parsed

	if sourceBatch.Valid {
		id, err := uuid.Parse(sourceBatch.String)
		if err != nil {
			return nil, fmt.Errorf("parse source batch id %q: %w", sourceBatch.String, err)
		}
		record.SourceBatchID = &id
	}
	return record, nil
}

func uuidPtr(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

// isUniqueViolation reports whether err is a unique-constraint violation from
// either supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}
