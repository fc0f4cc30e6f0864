package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/puehres/product-import/cmd/import-cli/ui"
	"github.com/puehres/product-import/internal/conflict"
	"github.com/puehres/product-import/internal/dedup"
	"github.com/puehres/product-import/internal/extract"
	"github.com/puehres/product-import/internal/ingest"
	"github.com/puehres/product-import/internal/parse"
	"github.com/puehres/product-import/internal/storage"
	"github.com/puehres/product-import/internal/supplier"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <invoice.pdf> [invoice.pdf...]",
	Short: "Ingest one or more invoice PDFs",
	Long: `Ingest runs each invoice through extraction, supplier detection, line item
parsing and deduplication. Each file is one batch; a corrupt file or an
unknown supplier fails that batch without touching the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Ingestion.Timeout)
	defer cancel()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	defer db.Close()

	blobs, err := openBlobStore(cfg)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	products := storage.NewProductRepository(db)
	batches := storage.NewBatchRepository(db)
	registry := supplier.DefaultRegistry()

	pipeline := ingest.NewPipeline(
		extract.NewPDFExtractor(),
		supplier.NewClassifier(registry, cfg.Classifier.MinConfidence, logger),
		parse.DefaultRegistry(),
		dedup.NewEngine(products, conflict.NewDetector(conflict.Config{
			PriceThreshold:          cfg.Conflict.PriceThreshold,
			NameSimilarityThreshold: cfg.Conflict.NameSimilarityThreshold,
		}), logger),
		blobs,
		batches,
		logger,
	)

	ui.Section("Invoice Ingestion")

	var bar *progressbar.ProgressBar
	if len(args) > 1 {
		bar = ui.NewProgressBar(int64(len(args)), "documents")
	}

	failed := 0
	for _, path := range args {
		if err := ingestFile(ctx, pipeline, path); err != nil {
			failed++
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}

func ingestFile(ctx context.Context, pipeline *ingest.Pipeline, path string) error {
	filename := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		ui.Error("%s: %v", filename, err)
		return err
	}

	sp := ui.NewSpinner(fmt.Sprintf("Ingesting %s...", filename))
	sp.Start()
	result, err := pipeline.Ingest(ctx, filename, data)
	sp.Stop()

	if err != nil {
		var unknown *supplier.UnknownSupplierError
		if errors.As(err, &unknown) {
			ui.Error("%s: unknown supplier (best guess %q at %.2f)", filename, unknown.BestID, unknown.BestConfidence)
			ui.Info("  Supported suppliers: %v", unknown.Supported)
			return err
		}

		var corrupt *extract.CorruptError
		if errors.As(err, &corrupt) {
			ui.Error("%s: not a readable PDF", filename)
			return err
		}

		ui.Error("%s: %v", filename, err)
		return err
	}

	ui.Success("%s: supplier %s (confidence %.2f), batch %s",
		filename, result.SupplierID, result.Confidence, result.BatchID)
	ui.Info("  %d items: %d created, %d duplicates skipped, %d flagged for review, %d without key",
		result.TotalItems, result.Created, result.SkippedDuplicate, result.FlaggedConflict, result.SkippedNoKey)
	if result.ParseFailures > 0 {
		ui.Warning("  %d rows failed to parse (success rate %.0f%%)",
			result.ParseFailures, result.SuccessRate()*100)
		for _, failure := range result.Failures {
			ui.Info("    row %d: %s", failure.Position, failure.Reason)
		}
	}
	return nil
}
