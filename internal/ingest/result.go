package ingest

import (
	"time"

	"github.com/google/uuid"

	"github.com/puehres/product-import/internal/dedup"
	"github.com/puehres/product-import/internal/parse"
)

// BatchResult summarizes one document ingestion.
type BatchResult struct {
	BatchID      uuid.UUID
	Filename     string
	SHA256       string
	BlobLocation string

	SupplierID string
	Confidence float64

	TotalItems       int
	Created          int
	SkippedDuplicate int
	FlaggedConflict  int
	SkippedNoKey     int
	ParseFailures    int

	Items    []dedup.ItemResult
	Failures []parse.RowError

	Duration time.Duration
}

// SuccessRate is the fraction of detected rows that produced a line item.
func (r *BatchResult) SuccessRate() float64 {
	total := r.TotalItems + r.ParseFailures
	if total == 0 {
		return 0
	}
	return float64(r.TotalItems) / float64(total)
}

func (r *BatchResult) count(status dedup.Status) {
	switch status {
	case dedup.StatusCreated:
		r.Created++
	case dedup.StatusDuplicateSkipped:
		r.SkippedDuplicate++
	case dedup.StatusConflictFlagged:
		r.FlaggedConflict++
	case dedup.StatusSkippedNoKey:
		r.SkippedNoKey++
	}
}
