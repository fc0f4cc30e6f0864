// Package commands implements the import CLI.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/puehres/product-import/cmd/import-cli/ui"
)

var (
	cfgFile string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "import-cli",
	Short: "Supplier invoice import - ingest invoice PDFs into the product database",
	Long: `import-cli ingests supplier invoice PDFs, detects the issuing supplier,
parses the line items and deduplicates them against the product database.
Conflicting re-imports are flagged for review instead of overwriting data.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		godotenv.Load()
		ui.Init(noColor)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
