// Package storage provides database models and repositories for the import pipeline.
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the outcome of an ingestion batch.
type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusFailed    BatchStatus = "failed"
	BatchStatusSucceeded BatchStatus = "succeeded"
)

// ProductRecord is the persisted entity representing one distinct product.
// ManufacturerArticleNo is the business-defined unique key: when non-empty it
// is unique across all records, enforced by the database. Records are created
// once on first sight of a key and never deleted by the pipeline; only
// RequiresReview and ReviewNotes are mutated afterwards, through the
// conflict-resolution path.
type ProductRecord struct {
	ID                    uuid.UUID
	ManufacturerArticleNo string
	Manufacturer          string
	SupplierID            string
	SupplierArticleNo     string
	Category              string
	DisplayName           string
	UnitPrice             decimal.Decimal
	Currency              string
	RequiresReview        bool
	ReviewNotes           string
	SourceBatchID         *uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IngestionBatch is the persisted bookkeeping row for one ingestion run.
type IngestionBatch struct {
	ID               uuid.UUID
	Filename         string
	SHA256           string
	BlobLocation     string
	SupplierID       string
	Status           BatchStatus
	TotalItems       int
	Created          int
	SkippedDuplicate int
	FlaggedConflict  int
	SkippedNoKey     int
	ParseFailures    int
	SuccessRate      float64
	StartedAt        time.Time
	CompletedAt      *time.Time
}
