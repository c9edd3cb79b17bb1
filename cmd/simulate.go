/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/execution-simulator/internal/bootstrap"
	"github.com/spf13/cobra"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a single order fill",
	Long: `Simulate a single order fill from flags and print the execution report as JSON.
Candle and volatility flags populate the market context only when set.`,
	Run: bootstrap.StartSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	bootstrap.RegisterSimulateFlags(simulateCmd)
}
