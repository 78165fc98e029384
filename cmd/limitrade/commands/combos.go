package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/limitrade/internal/combination"
	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/scoring"
	"github.com/wonny/limitrade/internal/snapshot"
)

// combosCmd represents the combos command
var combosCmd = &cobra.Command{
	Use:   "combos",
	Short: "Find balanced trade combinations in a snapshot file",
	Long: `Scores the snapshot file, takes the top-ranked pool and searches every
two-sided partition for balanced trades.

Search flags override the strategy file's combinations section.

Example:
  go run ./cmd/limitrade combos --input items.json
  go run ./cmd/limitrade combos --input items.json --max-side 3 --min-balance 0.85 --top-k 5`,
	RunE: runCombos,
}

var (
	combosInput      string
	combosMode       string
	combosRisk       float64
	combosMinSide    int
	combosMaxSide    int
	combosMinBalance float64
	combosMinScore   float64
	combosTopK       int
	combosPool       int
)

func init() {
	rootCmd.AddCommand(combosCmd)

	combosCmd.Flags().StringVar(&combosInput, "input", "", "item snapshot JSON file")
	combosCmd.Flags().StringVar(&combosMode, "mode", "", "canonical mode; default is the strategy profile")
	combosCmd.Flags().Float64Var(&combosRisk, "risk", contracts.NeutralRisk, "market risk index in [0,1]")
	combosCmd.Flags().IntVar(&combosMinSide, "min-side", 0, "minimum items per side")
	combosCmd.Flags().IntVar(&combosMaxSide, "max-side", 0, "maximum items per side")
	combosCmd.Flags().Float64Var(&combosMinBalance, "min-balance", 0, "minimum offer/request value ratio in (0,1]")
	combosCmd.Flags().Float64Var(&combosMinScore, "min-score", 0, "minimum mean composite score in [0,1]")
	combosCmd.Flags().IntVar(&combosTopK, "top-k", 0, "number of combinations to keep")
	combosCmd.Flags().IntVar(&combosPool, "pool", 0, "top-ranked items fed to the search (capped at the pool ceiling)")
	_ = combosCmd.MarkFlagRequired("input")
}

func runCombos(cmd *cobra.Command, args []string) error {
	log := cliLogger()

	items, err := snapshot.ReadFile(combosInput)
	if err != nil {
		return err
	}

	cfg, _, err := loadStrategy("")
	if err != nil {
		return err
	}
	profile, err := resolveProfile(cfg, combosMode)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	params := cfg.Combinations
	if flags.Changed("min-side") {
		params.MinSide = combosMinSide
	}
	if flags.Changed("max-side") {
		params.MaxSide = combosMaxSide
	}
	if flags.Changed("min-balance") {
		params.MinBalance = combosMinBalance
	}
	if flags.Changed("min-score") {
		params.MinScore = combosMinScore
	}
	if flags.Changed("top-k") {
		params.TopK = combosTopK
	}
	cfg.Combinations = params
	if flags.Changed("pool") {
		cfg.Scan.Pool = combosPool
	}

	scored, err := scoring.NewEngine(log).ScoreItems(items, profile, combosRisk)
	if err != nil {
		return fmt.Errorf("score items: %w", err)
	}
	pool := scoring.Pool(scored, cfg.PoolSize())

	combos, err := combination.NewGenerator(log.Zerolog()).Find(pool, params)
	if err != nil {
		return fmt.Errorf("find combinations: %w", err)
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{
			"profile":      profile,
			"params":       params,
			"pool":         len(pool),
			"combinations": combos,
		})
	}

	PrintHeader("Trade Combinations",
		fmt.Sprintf("Input     : %s (%d items, pool %d)", combosInput, len(items), len(pool)),
		fmt.Sprintf("Profile   : %s", profile.Name),
		fmt.Sprintf("Sides     : %d..%d items", params.MinSide, params.MaxSide),
		fmt.Sprintf("Filters   : balance ≥ %.2f, score ≥ %.2f, top %d", params.MinBalance, params.MinScore, params.TopK),
	)
	PrintCombinations(combos)
	return nil
}
