package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/puehres/product-import/cmd/import-cli/ui"
	"github.com/puehres/product-import/internal/storage"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the conflict review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products flagged for review",
	RunE:  runReviewList,
}

var (
	resolveKeep bool
	resolveNote string
)

var reviewResolveCmd = &cobra.Command{
	Use:   "resolve <product-id>",
	Short: "Clear the review flag on a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewResolve,
}

func init() {
	reviewResolveCmd.Flags().BoolVar(&resolveKeep, "keep-flag", false, "keep the review flag set, only update the notes")
	reviewResolveCmd.Flags().StringVar(&resolveNote, "note", "", "resolution note to store on the record")
	reviewCmd.AddCommand(reviewListCmd, reviewResolveCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runReviewList(cmd *cobra.Command, args []string) error {
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

	records, err := storage.NewProductRepository(db).ListRequiringReview(ctx)
	if err != nil {
		return fmt.Errorf("list review queue: %w", err)
	}

	if len(records) == 0 {
		ui.Success("Review queue is empty")
		return nil
	}

	ui.Section(fmt.Sprintf("Products Requiring Review (%d)", len(records)))
	for _, record := range records {
		ui.Info("%s  %-16s %s  %s %s",
			record.ID, record.ManufacturerArticleNo, record.DisplayName,
			record.UnitPrice.String(), record.Currency)
		for _, line := range strings.Split(record.ReviewNotes, "\n") {
			if line != "" {
				ui.Warning("  %s", line)
			}
		}
	}
	return nil
}

func runReviewResolve(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

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

	err = storage.NewProductRepository(db).UpdateReviewStatus(ctx, id, resolveKeep, resolveNote)
	if err != nil {
		return fmt.Errorf("update review status: %w", err)
	}

	if resolveKeep {
		ui.Success("Updated review notes on %s", id)
	} else {
		ui.Success("Cleared review flag on %s", id)
	}
	return nil
}
