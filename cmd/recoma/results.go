package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/recoma/internal/cli"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage stored results",
	Long:  `List, inspect, and remove results kept by the store of the configuration.`,
}

var resultsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored results",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ListResults(cmd.Context(), resultsOptions(cmd), os.Stdout); err != nil {
			fail("Error: %v", err)
		}
	},
}

var resultsInspectCmd = &cobra.Command{
	Use:   "inspect <task-id>",
	Short: "Print a stored result as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.InspectResult(cmd.Context(), resultsOptions(cmd), args[0], os.Stdout); err != nil {
			fail("Error: %v", err)
		}
	},
}

var resultsRmCmd = &cobra.Command{
	Use:   "rm <task-id>...",
	Short: "Remove one or more results",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.RemoveResults(cmd.Context(), resultsOptions(cmd), args, os.Stdout); err != nil {
			fail("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsLsCmd)
	resultsCmd.AddCommand(resultsInspectCmd)
	resultsCmd.AddCommand(resultsRmCmd)
}

func resultsOptions(cmd *cobra.Command) cli.ResultsOptions {
	return cli.ResultsOptions{LogOptions: logOptions(cmd), ConfigPath: configPath(cmd)}
}
