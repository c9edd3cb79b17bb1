/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/execution-simulator/internal/bootstrap"
	"github.com/spf13/cobra"
)

// executionWorkerCmd represents the execution worker command
var executionWorkerCmd = &cobra.Command{
	Use:   "execution-worker",
	Short: "Consume queued simulation requests",
	Long:  `The execution worker consumes simulation requests from NATS JetStream and publishes the resulting execution reports.`,
	Run:   bootstrap.StartExecutionWorker,
}

func init() {
	rootCmd.AddCommand(executionWorkerCmd)
}
