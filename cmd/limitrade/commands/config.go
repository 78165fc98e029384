package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/limitrade/internal/strategyconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect strategy configuration",
	Long: `Shows, hashes and validates strategy YAML files.

Subcommands:
  show      - print the effective configuration (defaults filled in)
  hash      - print the configuration hash recorded with every scan
  validate  - check required constraints and recommended ranges

Example:
  go run ./cmd/limitrade config show --file strategy.yaml
  go run ./cmd/limitrade config validate --file strategy.yaml`,
}

var (
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE:  showConfig,
	}

	configHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "Print the configuration hash",
		RunE:  hashConfig,
	}

	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate a strategy file",
		RunE:  validateConfig,
	}
)

var configPath string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configHashCmd)
	configCmd.AddCommand(configValidateCmd)

	configCmd.PersistentFlags().StringVar(&configPath, "file", "", "strategy YAML (default is the built-in configuration)")
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfigFile()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cfg)
	}
	data, err := strategyconfig.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func hashConfig(cmd *cobra.Command, args []string) error {
	cfg, data, err := loadConfigFile()
	if err != nil {
		return err
	}

	snap, err := strategyconfig.NewDecisionSnapshot(cfg, data)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(snap)
	}
	fmt.Printf("%s  %s (%s)\n", snap.ConfigHash, snap.StrategyID, snap.Profile)
	return nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfigFile()
	if err != nil {
		return err
	}

	warnings := strategyconfig.Warn(cfg)
	if jsonOutput {
		return printJSON(map[string]interface{}{
			"valid":    true,
			"warnings": warnings,
		})
	}

	for _, w := range warnings {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	PrintSuccess(fmt.Sprintf("%s is valid (%d warnings)", describePath(configPath, strategyFile), len(warnings)))
	return nil
}

// loadConfigFile prefers --file over the global --strategy flag
func loadConfigFile() (*strategyconfig.Config, []byte, error) {
	if configPath != "" {
		return loadStrategyFile(configPath)
	}
	return loadStrategy("")
}

func describePath(paths ...string) string {
	for _, p := range paths {
		if p != "" {
			return p
		}
	}
	return "built-in configuration"
}
