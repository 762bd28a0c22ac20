package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	panelFile    string
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Aegis NSE - 일봉 패널 기반 종목 랭킹 시스템",
	Long: `Aegis NSE Unified CLI

NSE 일봉 패널(OHLCV, 배송률, FII/DII 수급)에서 피처를 계산하고
호라이즌별 GBDT 분류기로 다음 거래일의 Top-N 종목을 뽑습니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant check --panel data/raw/panel.csv
  go run ./cmd/quant train
  go run ./cmd/quant predict --top 20
  go run ./cmd/quant show 5d
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&panelFile, "panel", "", "panel file, .csv or .xlsx (default is PANEL_FILE)")
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default is STRATEGY_FILE, then built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
