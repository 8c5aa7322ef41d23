package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	imcp "github.com/sentinelops/incidentdesk/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that lets agents list incidents,
change incident status and list users. Supports stdio (default) and HTTP transports.

In stdio mode the server speaks JSON-RPC over stdin/stdout; logs go to stderr.`,
		Example: `  incidentdesk mcp                            # stdio mode
  incidentdesk mcp --transport http --port 3001  # Streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}

	logger := configuredLogger()

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	mcpSrv := imcp.NewMCPServer(store, logger)

	if transport == "http" {
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	}
	return mcpSrv.ServeStdio()
}
