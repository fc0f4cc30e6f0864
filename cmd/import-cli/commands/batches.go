package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/puehres/product-import/cmd/import-cli/ui"
	"github.com/puehres/product-import/internal/storage"
)

var batchLimit int

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List recent ingestion batches",
	RunE:  runBatches,
}

func init() {
	batchesCmd.Flags().IntVar(&batchLimit, "limit", 20, "maximum number of batches to show")
	rootCmd.AddCommand(batchesCmd)
}

func runBatches(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	defer db.Close()

	batches, err := storage.NewBatchRepository(db).ListRecent(ctx, batchLimit)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}

	if len(batches) == 0 {
		ui.Info("No batches ingested yet")
		return nil
	}

	ui.Section(fmt.Sprintf("Recent Batches (%d)", len(batches)))
	for _, batch := range batches {
		line := fmt.Sprintf("%s  %-10s %-24s %3d items, %d new, %d dup, %d flagged",
			batch.StartedAt.Format("2006-01-02 15:04"), batch.Status, batch.Filename,
			batch.TotalItems, batch.Created, batch.SkippedDuplicate, batch.FlaggedConflict)
		switch batch.Status {
		case storage.BatchStatusFailed:
			ui.Error("%s", line)
		default:
			ui.Info("%s", line)
		}
	}
	return nil
}
