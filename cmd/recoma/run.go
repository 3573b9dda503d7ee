package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/recoma/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run batch inference over a dataset",
	Long: `Solves every task of the input file and writes predictions.json, all_data.jsonl,
source_config.json and the rendered trees (files/) into the output directory.
The exact-match score is printed when the tasks carry gold answers.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{
			LogOptions: logOptions(cmd),
			ConfigPath: configPath(cmd),
		}
		opts.InputPath, _ = cmd.Flags().GetString("input")
		opts.OutputDir, _ = cmd.Flags().GetString("output-dir")
		opts.Workers, _ = cmd.Flags().GetInt("workers")
		opts.DumpPrompts, _ = cmd.Flags().GetBool("dump-prompts")
		opts.TraceFile, _ = cmd.Flags().GetString("trace-file")
		opts.RateLimit, _ = cmd.Flags().GetFloat64("rate-limit")
		opts.Resume, _ = cmd.Flags().GetBool("resume")

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		if _, err := cli.Execute(sc, opts, os.Stdout); err != nil {
			if sig := sc.Signal(); sig != nil {
				fail("Interrupted by %v; partial outputs were written.", sig)
			}
			fail("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "Dataset file to read tasks from")
	runCmd.Flags().StringP("output-dir", "o", "", "Directory for predictions and rendered trees")
	runCmd.Flags().Int("workers", 0, "Concurrent searches (default: config workers, or 1)")
	runCmd.Flags().Bool("dump-prompts", false, "Write every generator prompt to prompts_dump/")
	runCmd.Flags().String("trace-file", "", "Export OpenTelemetry spans as JSON to this file")
	runCmd.Flags().Float64("rate-limit", 0, "Maximum searches started per second (default: config rate_limit)")
	runCmd.Flags().Bool("resume", false, "Reuse results already in the configured store")
}
