package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/forecast"
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Replay aggregate points through the risk forecaster",
	Long: `Feeds a JSON array of aggregate market points through the forecaster in
order and prints the resulting risk index and trade windows.

Each point has mean_value_change, mean_volume, up_count and down_count.

Example:
  go run ./cmd/limitrade forecast --input points.json
  go run ./cmd/limitrade forecast --input points.json --history`,
	RunE: runForecast,
}

var (
	forecastInput   string
	forecastHistory bool
)

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().StringVar(&forecastInput, "input", "", "aggregate point JSON file")
	forecastCmd.Flags().BoolVar(&forecastHistory, "history", false, "print the risk index after every point")
	_ = forecastCmd.MarkFlagRequired("input")
}

func runForecast(cmd *cobra.Command, args []string) error {
	log := cliLogger()

	data, err := os.ReadFile(forecastInput)
	if err != nil {
		return fmt.Errorf("read points: %w", err)
	}
	var points []contracts.AggregatePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("decode points %s: %w", forecastInput, err)
	}

	cfg, _, err := loadStrategy("")
	if err != nil {
		return err
	}

	f := forecast.New(cfg.Forecast, log.Zerolog())
	steps := make([]contracts.RiskIndex, 0, len(points))
	for i, p := range points {
		risk := f.Update(p)
		steps = append(steps, risk)
		if forecastHistory && !jsonOutput {
			fmt.Printf("[%3d] risk %.4f  windows %d  state %s\n", i+1, risk.Value, len(risk.Windows), f.State())
		}
	}

	if jsonOutput {
		out := map[string]interface{}{
			"risk":    f.Current().Value,
			"windows": f.Current().Windows,
			"state":   f.State(),
			"samples": f.Len(),
		}
		if forecastHistory {
			out["history"] = steps
		}
		return printJSON(out)
	}

	opts := f.Options()
	PrintHeader("Risk Forecast",
		fmt.Sprintf("Input     : %s (%d points)", forecastInput, len(points)),
		fmt.Sprintf("History   : %d of %d samples (min %d)", f.Len(), opts.Capacity, opts.MinSamples),
	)
	PrintRisk(f.Current(), string(f.State()))
	return nil
}
