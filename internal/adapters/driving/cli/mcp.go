package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docchat/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ask and retrieve tools to AI assistants",
	Long: `Serves docchat over the Model Context Protocol. Assistants get two tools,
"ask" (a grounded answer with sources) and "retrieve" (the raw records
behind it), plus read-only document status resources.

Without --port the server speaks JSON-RPC on stdin/stdout, which is what
desktop assistants launch:

  {"mcpServers": {"docchat": {"command": "docchat", "args": ["mcp", "serve"]}}}

With --port it serves streamable HTTP instead, for remote clients and
the MCP Inspector.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var mcpPort int

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "Serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Chat:      chatService,
		Documents: documentService,
		Tenants:   tenants,
		DefaultK:  defaultK,
	}, mcp.WithLogger(logger.L()))
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
