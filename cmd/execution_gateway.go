/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/execution-simulator/internal/bootstrap"
	"github.com/spf13/cobra"
)

// executionGatewayCmd represents the execution gateway command
var executionGatewayCmd = &cobra.Command{
	Use:   "execution-gateway",
	Short: "Start the Execution Gateway service",
	Long: `The Execution Gateway exposes the execution simulator over HTTP. Fills are
enriched with stored market context when the market data database is configured
and reports are published to NATS JetStream when nats is configured.`,
	Run: bootstrap.StartExecutionGateway,
}

func init() {
	rootCmd.AddCommand(executionGatewayCmd)
}
