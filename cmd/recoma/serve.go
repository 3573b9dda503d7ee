package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/recoma/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Exposes the configured search over a JSON API (POST /solve, /results, /metrics).`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.ServeOptions{
			LogOptions: logOptions(cmd),
			ConfigPath: configPath(cmd),
		}
		opts.Port, _ = cmd.Flags().GetInt("port")
		opts.Timeout, _ = cmd.Flags().GetDuration("timeout")
		opts.TraceFile, _ = cmd.Flags().GetString("trace-file")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		if err := cli.Serve(sc, opts, os.Stdout); err != nil {
			fail("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Duration("timeout", 0, "Per-request search timeout (0 means none)")
	serveCmd.Flags().String("trace-file", "", "Export OpenTelemetry spans as JSON to this file")
}
