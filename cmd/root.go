package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/know-your-zip/explorer-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "explorer-cli",
	Version: "1.0.0",
	Short:   "Miami-Dade ZIP code explorer",
	Long:    "Validates ZIP codes against county boundary data, answers geometry queries (centroid, area, containment, neighbors), and locates nearby public facilities from the county open-data portal.",
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
