package commands

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const ruleWidth = 59

// PrintHeader prints a titled block header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println(strings.Repeat("─", ruleWidth))
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println(strings.Repeat("═", ruleWidth))
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintQuality prints a data quality snapshot
func PrintQuality(s *contracts.DataQualitySnapshot) {
	PrintHeader("Data Quality: " + s.Source)
	PrintKeyValue("Checked", s.CheckedAt.Format("2006-01-02 15:04:05"), 12)
	PrintKeyValue("Rows", fmt.Sprintf("%d", s.TotalRows), 12)
	PrintKeyValue("Symbols", fmt.Sprintf("%d", s.TotalSymbols), 12)
	if !s.LatestDate.IsZero() {
		PrintKeyValue("Period", s.FirstDate.Format("2006-01-02")+" ~ "+s.LatestDate.Format("2006-01-02"), 12)
	}
	PrintKeyValue("Coverage", fmt.Sprintf("%.1f%%", s.CoverageRate()*100), 12)
	PrintSeparator()

	for _, issue := range s.Issues {
		PrintError(issue)
	}
	for _, w := range s.Warnings {
		PrintWarning(w)
	}
	if s.Passed() {
		PrintSuccess("Quality check passed")
	}
}

// PrintRanking prints the top-N table of one horizon
func PrintRanking(r contracts.HorizonRanking) {
	PrintHeader(fmt.Sprintf("Top %d | horizon %s | %s", len(r.Predictions), r.Horizon, r.Date.Format("2006-01-02")))
	if r.Skipped != "" {
		PrintWarning("skipped: " + r.Skipped)
		return
	}
	PrintKeyValue("Eligible", fmt.Sprintf("%d", r.Eligible), 10)
	fmt.Println()

	widths := []int{4, 14, 10, 9, 12, 12, 11}
	PrintTableHeader([]string{"Rank", "Symbol", "Close", "Deliv%", "FII MA5", "DII MA5", "Prob"}, widths)
	for _, p := range r.Predictions {
		PrintTableRow([]string{
			fmt.Sprintf("%d", p.Rank),
			p.Symbol,
			formatFloat(p.Close, 2),
			formatFloat(p.DeliveryPct, 1),
			formatFloat(p.FIINetMA5, 1),
			formatFloat(p.DIINetMA5, 1),
			formatFloat(p.Probability, 4),
		}, widths)
	}
}

func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
