package commands

import (
	"github.com/spf13/cobra"

	"github.com/puehres/product-import/cmd/import-cli/ui"
	"github.com/puehres/product-import/internal/parse"
	"github.com/puehres/product-import/internal/supplier"
)

var suppliersCmd = &cobra.Command{
	Use:   "suppliers",
	Short: "List supported suppliers",
	RunE:  runSuppliers,
}

func init() {
	rootCmd.AddCommand(suppliersCmd)
}

func runSuppliers(cmd *cobra.Command, args []string) error {
	registry := supplier.DefaultRegistry()
	parsers := parse.DefaultRegistry()

	ui.Section("Supported Suppliers")
	for _, def := range registry.Definitions() {
		ui.Info("%-12s %s", def.ID, def.Name)
		if p, ok := parsers.For(def.ID); ok {
			meta := p.Metadata()
			ui.Info("%-12s %s", "", meta.Description)
		}
	}
	return nil
}
