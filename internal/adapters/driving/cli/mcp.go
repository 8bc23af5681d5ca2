package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qpro/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose ingest, search and drafting to an MCP client",
	Long: `Start a Model Context Protocol server so an AI assistant can ingest
documents, search them and compose drafts.

Tools: ingest, ingest_text, search, compose_draft.
Resources: qpro://documents, qpro://documents/{documentId} and
qpro://details/{documentId}.

By default the server speaks JSON-RPC over stdio. --port serves
streamable HTTP instead, which suits MCP Inspector.

Examples:
  qpro mcp serve
  qpro mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "qpro": {
        "command": "/path/to/qpro",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrievalService,
		Ingest:    ingestService,
		Draft:     draftService,
		Document:  documentService,
	})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", mcpPort)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
