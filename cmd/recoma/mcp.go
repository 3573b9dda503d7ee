package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/recoma/internal/cli"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the configured search as an MCP Server.
This allows AI agents to call recoma as a tool.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.MCPOptions{
			LogOptions: logOptions(cmd),
			ConfigPath: configPath(cmd),
		}
		opts.Transport, _ = cmd.Flags().GetString("transport")
		opts.Port, _ = cmd.Flags().GetInt("port")

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		if err := cli.ServeMCP(sc, opts); err != nil {
			fail("MCP Server execution failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
