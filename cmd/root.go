package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/config"
)

var (
	cfg *config.Config
	// sourceOverride replaces data.source for this invocation.
	sourceOverride string
)

var rootCmd = &cobra.Command{
	Use:   "readiness-cli",
	Short: "Kindergarten readiness cohort loader and analytics",
	Long:  "Loads the child, risk-score and participation extracts, joins them per child, and serves filters, aggregates and exports over the merged cohort.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c
		if sourceOverride != "" {
			cfg.Data.Source = sourceOverride
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourceOverride, "source", "", "record source override (directory, http(s)/ftp URL, or .zip bundle)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
