package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/strategyconfig"
	"github.com/wonny/limitrade/pkg/logger"
)

var (
	// Global flags
	strategyFile string
	jsonOutput   bool
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "limitrade",
	Short: "Limited item market scanner",
	Long: `limitrade scores limited items, searches balanced trade combinations
and forecasts market risk windows.

Usage:
  go run ./cmd/limitrade [command]

Examples:
  go run ./cmd/limitrade score --input items.json --mode conservative
  go run ./cmd/limitrade combos --input items.json --max-side 2
  go run ./cmd/limitrade forecast --input points.json
  go run ./cmd/limitrade scan
  go run ./cmd/limitrade api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default is STRATEGY_FILE, then built-in defaults)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// cliLogger logs to stderr so stdout stays clean for results
func cliLogger() *logger.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.NewWithWriter(os.Stderr, level, "cli")
}

// loadStrategy reads the --strategy file, then fallback, then the defaults
func loadStrategy(fallback string) (*strategyconfig.Config, []byte, error) {
	if strategyFile != "" {
		return loadStrategyFile(strategyFile)
	}
	return loadStrategyFile(fallback)
}

// loadStrategyFile reads path, or returns the defaults when path is empty
func loadStrategyFile(path string) (*strategyconfig.Config, []byte, error) {
	if path == "" {
		cfg := strategyconfig.Default()
		data, err := strategyconfig.Marshal(cfg)
		return cfg, data, err
	}

	cfg, data, err := strategyconfig.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load strategy %s: %w", path, err)
	}
	return cfg, data, nil
}

// resolveProfile uses the canonical mode when one is given, the strategy profile otherwise
func resolveProfile(cfg *strategyconfig.Config, mode string) (contracts.StrategyProfile, error) {
	if mode == "" {
		return cfg.ResolveProfile()
	}
	m, err := strategyconfig.ParseMode(mode)
	if err != nil {
		return contracts.StrategyProfile{}, err
	}
	return strategyconfig.Canonical(m)
}
