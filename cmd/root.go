package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/waterfall"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "prospect-cli",
	Short: "Email enrichment waterfall orchestrator",
	Long:  "Finds prospect email addresses by cascading through paid lookup providers in cost order, with caching, verification, and CRM write-back.",
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

// initEngine builds the waterfall engine from the loaded config.
func initEngine(ctx context.Context) (*waterfall.Engine, error) {
	engine, err := waterfall.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(engine.Providers()) == 0 {
		zap.L().Warn("no providers configured; every lookup will return not_found")
	}
	return engine, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
