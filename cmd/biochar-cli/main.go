package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/biochar/feedstock"
	"yashubustudio/biochar/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg    feedstock.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "biochar-cli",
		Short: "Recommend biochar feedstocks for soil samples",
		Long: `biochar-cli matches soil challenges (low organic carbon, extreme pH, heat,
drought) against experimentally measured pyrolysis data and recommends a
feedstock for every soil sample of a CSV/TSV batch.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = feedstock.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			logger, err = logging.New(cfg.Logging.Mode, level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to biochar.yaml (default: ./biochar.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newRecommendCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newSimilarCmd())
	root.AddCommand(newChallengesCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "biochar-cli: %v\n", err)
		os.Exit(1)
	}
}

// loadReferences loads both tiers from the active configuration.
func loadReferences(ctx context.Context) *feedstock.References {
	return feedstock.LoadReferences(ctx, cfg.Datasets.Primary, cfg.Datasets.Fallback, logger)
}

func loadResolver() *feedstock.Resolver {
	groups, err := feedstock.LoadSimilarGroups(cfg.SimilarGroupsFile)
	if err != nil {
		logger.Warn("similar groups file unusable, using defaults",
			zap.String("path", cfg.SimilarGroupsFile),
			zap.Error(err))
	}
	return feedstock.NewResolver(groups)
}
