package cli

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/blcat/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query the
catalog.

Tools: search_parts, search_sets, get_part, list_categories, get_color.
Resources: blcat://counts, blcat://runs, blcat://sets/{prefix}.

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead; --host picks the interface to bind.

Examples:
  # Stdio mode (default, for desktop assistants)
  blcat mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  blcat mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", "localhost", "interface to bind in HTTP mode")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Catalog: catalogService,
		Sync:    catalogSync,
	})
	if err != nil {
		return err
	}

	if port <= 0 {
		return server.Run(commandContext(cmd))
	}

	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("getting host flag: %w", err)
	}
	ln, err := mcp.Listen(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	cmd.Printf("MCP server listening on http://%s\n", ln.Addr())
	return server.Serve(commandContext(cmd), ln)
}
