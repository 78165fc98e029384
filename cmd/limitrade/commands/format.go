package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/notify"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints results through these helpers
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block with key/value lines
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		PrintSeparator()
		for _, line := range lines {
			fmt.Printf("  %s\n", line)
		}
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// printJSON writes v as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintScored prints ranked items as a table
func PrintScored(items []contracts.ScoredItem) {
	fmt.Printf("%4s  %-28s %10s %10s %8s  %-8s %s\n", "RANK", "NAME", "VALUE", "RAP", "SCORE", "DEMAND", "TREND")
	PrintSeparator()
	for _, it := range items {
		fmt.Printf("%4d  %-28s %10d %10d %8.4f  %-8s %s\n",
			it.Rank, truncate(it.Name, 28), it.Value, it.RAP, it.Composite, it.Demand, it.Trend)
	}
}

// PrintCombinations prints trade combinations, best first
func PrintCombinations(combos []contracts.TradeCombination) {
	if len(combos) == 0 {
		fmt.Println("  (no combination passed the filters)")
		return
	}
	for i, c := range combos {
		fmt.Printf("#%d  %s → %s\n", i+1, sideLabel(c.OfferNames, c.Offer), sideLabel(c.RequestNames, c.Request))
		fmt.Printf("    value %d → %d  gain %+d (%.1f%%)  balance %.3f  score %.4f  risk %s  outlook %s\n",
			c.OfferValue, c.RequestValue, c.ProjectedGain, c.ROIPercent,
			c.BalanceRatio, c.Score, c.RiskLevel, notify.Outlook(c.Score))
	}
}

// PrintRisk prints a risk index with its windows
func PrintRisk(risk contracts.RiskIndex, state string) {
	fmt.Printf("  Risk index : %.4f\n", risk.Value)
	fmt.Printf("  State      : %s\n", state)
	if len(risk.Windows) == 0 {
		fmt.Println("  Windows    : none")
		return
	}
	fmt.Println("  Windows    :")
	for _, w := range risk.Windows {
		fmt.Printf("    +%-10s confidence %.3f  (%s)\n", w.Offset.Round(time.Second), w.Confidence, w.Source)
	}
}

func sideLabel(names []string, ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		if i < len(names) && names[i] != "" {
			parts[i] = names[i]
		} else {
			parts[i] = fmt.Sprintf("#%d", id)
		}
	}
	return strings.Join(parts, " + ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
