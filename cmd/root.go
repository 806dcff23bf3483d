package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ledax/mapa-unidades/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "mapa-unidades",
	Short: "Commercial-unit geocoding pipeline and map API",
	Long:  "Ingests the commercial-unit spreadsheet, resolves addresses to coordinates through a cascading geocoder, and serves the results to the map front-end.",
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
