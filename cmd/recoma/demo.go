package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/recoma/internal/cli"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Ask questions interactively",
	Long:  `Prompts for a question id, a question and an optional context paragraph, then prints the answer and its reasoning tree.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.DemoOptions{
			LogOptions: logOptions(cmd),
			ConfigPath: configPath(cmd),
		}
		opts.TraceFile, _ = cmd.Flags().GetString("trace-file")
		if err := cli.RunDemo(opts, os.Stdin, os.Stdout); err != nil {
			fail("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().String("trace-file", "", "Export OpenTelemetry spans as JSON to this file")
}
