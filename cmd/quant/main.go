package main

import (
	"os"

	"github.com/wonny/aegis-nse/cmd/quant/commands"
)

// main is the entry point for the Aegis NSE CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/quant [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
