package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/scoring"
	"github.com/wonny/limitrade/internal/snapshot"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and rank an item snapshot file",
	Long: `Scores every item in a snapshot file under one strategy profile and
prints them ranked by composite score.

The input is a JSON array of items or an object with an "items" array.

Example:
  go run ./cmd/limitrade score --input items.json
  go run ./cmd/limitrade score --input items.json --mode conservative --risk 0.7`,
	RunE: runScore,
}

var (
	scoreInput string
	scoreMode  string
	scoreRisk  float64
	scoreTop   int
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "item snapshot JSON file")
	scoreCmd.Flags().StringVar(&scoreMode, "mode", "", "canonical mode (sniper|aggressive|conservative|momentum); default is the strategy profile")
	scoreCmd.Flags().Float64Var(&scoreRisk, "risk", contracts.NeutralRisk, "market risk index in [0,1]")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 0, "print only the top N items (0 = all)")
	_ = scoreCmd.MarkFlagRequired("input")
}

func runScore(cmd *cobra.Command, args []string) error {
	log := cliLogger()

	items, err := snapshot.ReadFile(scoreInput)
	if err != nil {
		return err
	}

	cfg, _, err := loadStrategy("")
	if err != nil {
		return err
	}
	profile, err := resolveProfile(cfg, scoreMode)
	if err != nil {
		return err
	}

	scored, err := scoring.NewEngine(log).ScoreItems(items, profile, scoreRisk)
	if err != nil {
		return fmt.Errorf("score items: %w", err)
	}
	if scoreTop > 0 {
		scored = scoring.Pool(scored, scoreTop)
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{
			"profile": profile,
			"risk":    scoreRisk,
			"items":   scored,
		})
	}

	PrintHeader("Item Ranking",
		fmt.Sprintf("Input     : %s (%d items)", scoreInput, len(items)),
		fmt.Sprintf("Profile   : %s", profile.Name),
		fmt.Sprintf("Risk      : %.3f", scoreRisk),
	)
	PrintScored(scored)
	return nil
}
