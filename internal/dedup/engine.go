// Package dedup decides, item by item, whether an incoming invoice position
// creates a new product record, repeats a known one, or contradicts it.
// Existing records are never overwritten: contradictions flag the record for
// human review instead.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/puehres/product-import/internal/conflict"
	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/parse"
	"github.com/puehres/product-import/internal/storage"
)

// Status is the per-item deduplication outcome.
type Status string

const (
	// StatusCreated means no record existed for the key and one was created.
	StatusCreated Status = "created"
	// StatusDuplicateSkipped means a record existed and matched; nothing changed.
	StatusDuplicateSkipped Status = "duplicate_skipped"
	// StatusConflictFlagged means a record existed but disagreed; it was
	// flagged for review and left otherwise untouched.
	StatusConflictFlagged Status = "conflict_flagged"
	// StatusSkippedNoKey means the item carried no manufacturer article
	// number, so it cannot participate in deduplication.
	StatusSkippedNoKey Status = "skipped_no_key"
)

// ItemResult is the outcome for one line item.
type ItemResult struct {
	Position  int
	Status    Status
	ProductID uuid.UUID
	Conflicts []conflict.Conflict
}

// Engine runs per-item deduplication against a product store.
type Engine struct {
	store    storage.ProductStore
	detector *conflict.Detector
	logger   *observability.Logger
}

// NewEngine creates a deduplication engine.
func NewEngine(store storage.ProductStore, detector *conflict.Detector, logger *observability.Logger) *Engine {
	return &Engine{store: store, detector: detector, logger: logger}
}

// Process runs one line item through lookup, conflict detection and the
// create-or-flag decision. batchID is recorded as the source batch on newly
// created records.
func (e *Engine) Process(ctx context.Context, item parse.LineItem, batchID uuid.UUID) (ItemResult, error) {
	result := ItemResult{Position: item.Position}

	if item.ManufacturerArticleNo == "" {
		result.Status = StatusSkippedNoKey
		e.logger.Debug().
			Int("position", item.Position).
			Str("display_name", item.DisplayName).
			Msg("Item has no manufacturer article number, skipping dedup")
		return result, nil
	}

	existing, err := e.store.FindByKey(ctx, item.ManufacturerArticleNo)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return e.create(ctx, item, batchID)
	case err != nil:
		return result, fmt.Errorf("lookup %q: %w", item.ManufacturerArticleNo, err)
	}

	return e.reconcile(ctx, existing, item)
}

func (e *Engine) create(ctx context.Context, item parse.LineItem, batchID uuid.UUID) (ItemResult, error) {
	record := recordFromItem(item, batchID)

	err := e.store.Create(ctx, record)
	if errors.Is(err, storage.ErrKeyConflict) {
		// Lost the race against a concurrent ingestion of the same key.
		// The record exists now, so fall back to the lookup path.
		e.logger.Debug().
			Str("manufacturer_article_no", item.ManufacturerArticleNo).
			Msg("Create raced an existing key, re-fetching")

		existing, ferr := e.store.FindByKey(ctx, item.ManufacturerArticleNo)
		if ferr != nil {
			return ItemResult{Position: item.Position},
				fmt.Errorf("re-fetch after key conflict %q: %w", item.ManufacturerArticleNo, ferr)
		}
		return e.reconcile(ctx, existing, item)
	}
	if err != nil {
		return ItemResult{Position: item.Position},
			fmt.Errorf("create %q: %w", item.ManufacturerArticleNo, err)
	}

	e.logger.Debug().
		Str("manufacturer_article_no", record.ManufacturerArticleNo).
		Str("product_id", record.ID.String()).
		Msg("Created product record")

	return ItemResult{
		Position:  item.Position,
		Status:    StatusCreated,
		ProductID: record.ID,
	}, nil
}

func (e *Engine) reconcile(ctx context.Context, existing *storage.ProductRecord, item parse.LineItem) (ItemResult, error) {
	result := ItemResult{Position: item.Position, ProductID: existing.ID}

	conflicts := e.detector.Detect(existing, item)
	if len(conflicts) == 0 {
		result.Status = StatusDuplicateSkipped
		return result, nil
	}

	result.Status = StatusConflictFlagged
	result.Conflicts = conflicts

	notes := reviewNotes(conflicts)
	if err := e.store.UpdateReviewStatus(ctx, existing.ID, true, notes); err != nil {
		return result, fmt.Errorf("flag %q for review: %w", item.ManufacturerArticleNo, err)
	}

	e.logger.Info().
		Str("manufacturer_article_no", item.ManufacturerArticleNo).
		Str("product_id", existing.ID.String()).
		Int("conflicts", len(conflicts)).
		Msg("Flagged product for review")

	return result, nil
}

func recordFromItem(item parse.LineItem, batchID uuid.UUID) *storage.ProductRecord {
	record := &storage.ProductRecord{
		ManufacturerArticleNo: item.ManufacturerArticleNo,
		Manufacturer:          item.Manufacturer,
		SupplierID:            item.SupplierID,
		SupplierArticleNo:     item.SupplierArticleNo,
		Category:              item.Category,
		DisplayName:           item.DisplayName,
		UnitPrice:             item.UnitPrice,
		Currency:              item.Currency,
	}
	if batchID != uuid.Nil {
		id := batchID
		record.SourceBatchID = &id
	}
	return record
}

// reviewNotes renders detected conflicts into the human-readable notes stored
// on the flagged record.
func reviewNotes(conflicts []conflict.Conflict) string {
	lines := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		lines = append(lines, c.String())
	}
	return strings.Join(lines, "\n")
}
