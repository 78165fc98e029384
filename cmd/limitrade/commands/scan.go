package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/limitrade/pkg/config"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one market scan",
	Long: `Runs one scan pass against the configured market source
(MARKET_SOURCE=file|rolimons|postgres): snapshot, forecast, scoring and
combination search. Results are stored in PostgreSQL and Redis when configured.

Example:
  go run ./cmd/limitrade scan
  go run ./cmd/limitrade scan --notify --strategy strategy.yaml`,
	RunE: runScan,
}

var (
	scanNotify bool
	scanTop    int
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanNotify, "notify", false, "send Discord alerts for qualifying combinations")
	scanCmd.Flags().IntVar(&scanTop, "top", 10, "top picks to print")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := cliLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	scanner, err := a.scanner(scanNotify)
	if err != nil {
		return err
	}

	result, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if jsonOutput {
		return printJSON(result)
	}

	picks := result.TopPicks
	if scanTop > 0 && len(picks) > scanTop {
		picks = picks[:scanTop]
	}

	PrintHeader("Market Scan",
		fmt.Sprintf("Run ID    : %s", result.RunID),
		fmt.Sprintf("Source    : %s", cfg.Market.Source),
		fmt.Sprintf("Profile   : %s (%s)", result.Profile, shortHash(result.ProfileHash)),
		fmt.Sprintf("Items     : %d (avg RAP %.0f)", result.Metrics.TotalItems, result.Metrics.AverageRAP),
		fmt.Sprintf("Duration  : %s", result.Duration().Round(time.Millisecond)),
	)
	PrintRisk(result.Risk, result.Metrics.ForecastMode)
	PrintSeparator()
	PrintScored(picks)
	PrintSeparator()
	PrintCombinations(result.Combinations)
	if scanNotify {
		fmt.Println()
		PrintSuccess(fmt.Sprintf("%d alerts sent", result.Alerts))
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
