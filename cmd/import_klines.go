/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/execution-simulator/internal/bootstrap"
	"github.com/spf13/cobra"
)

// importKlinesCmd represents the import-klines command
var importKlinesCmd = &cobra.Command{
	Use:   "import-klines",
	Short: "Load exchange klines into the market data database",
	Long:  `Load a JSON array of exchange REST kline rows into market_klines so historical fills have candles to work with.`,
	Run:   bootstrap.StartImportKlines,
}

func init() {
	rootCmd.AddCommand(importKlinesCmd)
	bootstrap.RegisterImportKlinesFlags(importKlinesCmd)
}
