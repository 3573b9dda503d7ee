package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/recoma/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "recoma",
	Short: "recoma runs best-first reasoning-tree searches",
	Long: `recoma answers questions by expanding a tree of reasoning steps. Each step is
handled by a configured model (generator, decomposition controller, extractor...),
and the most promising unfinished tree is always expanded next.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Search configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

func logOptions(cmd *cobra.Command) cli.LogOptions {
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")
	return cli.LogOptions{Debug: debug, LogFile: logFile}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
