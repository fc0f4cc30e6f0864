// Package ingest wires extraction, supplier classification, line item
// parsing and deduplication into one document-level pipeline and keeps the
// per-batch bookkeeping.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/puehres/product-import/internal/blobstore"
	"github.com/puehres/product-import/internal/dedup"
	"github.com/puehres/product-import/internal/extract"
	"github.com/puehres/product-import/internal/observability"
	"github.com/puehres/product-import/internal/parse"
	"github.com/puehres/product-import/internal/storage"
	"github.com/puehres/product-import/internal/supplier"
)

// Pipeline runs the full ingestion flow for one uploaded document.
type Pipeline struct {
	extractor  extract.Extractor
	classifier *supplier.Classifier
	parsers    *parse.Registry
	engine     *dedup.Engine
	blobs      blobstore.Store
	batches    storage.BatchStore
	logger     *observability.Logger
}

// NewPipeline assembles an ingestion pipeline.
func NewPipeline(
	extractor extract.Extractor,
	classifier *supplier.Classifier,
	parsers *parse.Registry,
	engine *dedup.Engine,
	blobs blobstore.Store,
	batches storage.BatchStore,
	logger *observability.Logger,
) *Pipeline {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Pipeline{
		extractor:  extractor,
		classifier: classifier,
		parsers:    parsers,
		engine:     engine,
		blobs:      blobs,
		batches:    batches,
		logger:     logger,
	}
}

// Ingest runs one document through the pipeline. Document-level failures
// (unreadable PDF, unknown supplier) abort the batch and are returned as
// errors after the batch row is marked failed; row-level failures and
// conflicts are absorbed into the result. No existing product record is ever
// overwritten.
func (p *Pipeline) Ingest(ctx context.Context, filename string, data []byte) (*BatchResult, error) {
	start := time.Now()
	digest := sha256.Sum256(data)

	batch := &storage.IngestionBatch{
		Filename: filename,
		SHA256:   hex.EncodeToString(digest[:]),
	}

	location, err := p.blobs.Store(ctx, batch.SHA256, data)
	if err != nil {
		return nil, fmt.Errorf("store document blob: %w", err)
	}
	batch.BlobLocation = location

	if err := p.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create ingestion batch: %w", err)
	}

	ctx = observability.ContextWithBatchID(ctx, batch.ID.String())
	logger := p.logger.WithContext(ctx)

	logger.Info().
		Str("filename", filename).
		Str("sha256", batch.SHA256).
		Int("bytes", len(data)).
		Msg("Starting document ingestion")

	result := &BatchResult{
		BatchID:      batch.ID,
		Filename:     filename,
		SHA256:       batch.SHA256,
		BlobLocation: location,
	}

	content, err := p.extractor.Extract(ctx, data, filename)
	if err != nil {
		return nil, p.fail(ctx, logger, batch, result, fmt.Errorf("extract document: %w", err))
	}

	match, err := p.classifier.Classify(content.Text)
	if err != nil {
		return nil, p.fail(ctx, logger, batch, result, fmt.Errorf("classify supplier: %w", err))
	}
	result.SupplierID = match.SupplierID
	result.Confidence = match.Confidence
	batch.SupplierID = match.SupplierID
	logger = logger.WithSupplier(match.SupplierID)

	parser, ok := p.parsers.For(match.SupplierID)
	if !ok {
		return nil, p.fail(ctx, logger, batch, result,
			fmt.Errorf("no parser registered for supplier %q", match.SupplierID))
	}

	parsed := parser.Parse(content.Tables)
	result.TotalItems = len(parsed.Items)
	result.ParseFailures = len(parsed.Failures)
	result.Failures = parsed.Failures

	for _, failure := range parsed.Failures {
		logger.Warn().
			Int("position", failure.Position).
			Str("reason", failure.Reason).
			Msg("Row failed to parse")
	}

	// Items run strictly in document order so repeated keys within one
	// invoice resolve the same way on every run.
	for _, item := range parsed.Items {
		itemResult, err := p.engine.Process(ctx, item, batch.ID)
		if err != nil {
			return nil, p.fail(ctx, logger, batch, result, fmt.Errorf("deduplicate position %d: %w", item.Position, err))
		}
		result.Items = append(result.Items, itemResult)
		result.count(itemResult.Status)
	}

	result.Duration = time.Since(start)

	p.applyCounts(batch, result)
	batch.Status = storage.BatchStatusSucceeded
	if err := p.batches.Finish(ctx, batch); err != nil {
		return nil, fmt.Errorf("finish ingestion batch: %w", err)
	}

	logger.Info().
		Int("total_items", result.TotalItems).
		Int("created", result.Created).
		Int("skipped_duplicate", result.SkippedDuplicate).
		Int("flagged_conflict", result.FlaggedConflict).
		Int("skipped_no_key", result.SkippedNoKey).
		Int("parse_failures", result.ParseFailures).
		Dur("duration", result.Duration).
		Msg("Document ingestion complete")

	return result, nil
}

// fail marks the batch failed and returns the original error. Bookkeeping
// failures on the way down are logged, not surfaced; the document error is
// the one the caller needs.
func (p *Pipeline) fail(ctx context.Context, logger *observability.Logger, batch *storage.IngestionBatch, result *BatchResult, cause error) error {
	p.applyCounts(batch, result)
	batch.Status = storage.BatchStatusFailed
	if err := p.batches.Finish(ctx, batch); err != nil {
		logger.Error().Err(err).Msg("Failed to record batch failure")
	}

	var corrupt *extract.CorruptError
	var unknown *supplier.UnknownSupplierError
	switch {
	case errors.As(cause, &corrupt):
		logger.Error().Str("filename", corrupt.Filename).Err(corrupt.Err).Msg("Document is not a readable PDF")
	case errors.As(cause, &unknown):
		logger.Error().
			Str("best_supplier", unknown.BestID).
			Float64("confidence", unknown.BestConfidence).
			Strs("supported", unknown.Supported).
			Msg("Document matched no supported supplier")
	default:
		logger.Error().Err(cause).Msg("Document ingestion failed")
	}
	return cause
}

func (p *Pipeline) applyCounts(batch *storage.IngestionBatch, result *BatchResult) {
	batch.TotalItems = result.TotalItems
	batch.Created = result.Created
	batch.SkippedDuplicate = result.SkippedDuplicate
	batch.FlaggedConflict = result.FlaggedConflict
	batch.SkippedNoKey = result.SkippedNoKey
	batch.ParseFailures = result.ParseFailures
	batch.SuccessRate = result.SuccessRate()
}
