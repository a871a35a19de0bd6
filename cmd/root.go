package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadenrich/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadenrich",
	Short: "Batch lead enrichment pipeline",
	Long:  "Reads a lead sheet, crawls each company website, extracts niche-fit signals via Claude or keyword heuristics, scores and qualifies the leads.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
