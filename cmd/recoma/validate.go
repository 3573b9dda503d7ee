package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/recoma/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for consistency",
	Long:  `Builds every configured component and crawls the models from start_model, reporting dead references and unreachable models.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.ValidateOptions{
			LogOptions: logOptions(cmd),
			ConfigPath: configPath(cmd),
		}
		opts.Graph, _ = cmd.Flags().GetBool("graph")
		if err := cli.Validate(opts, os.Stdout); err != nil {
			fail("Validation failed: %v", err)
		}
		if !opts.Graph {
			fmt.Println("Config is valid! ✅")
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("graph", false, "Print the model graph as a Mermaid diagram (graph TD)")
}
