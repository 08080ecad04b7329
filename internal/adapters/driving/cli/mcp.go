package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexiq/internal/adapters/driving/mcp"
)

var (
	mcpHTTPAddr    string
	mcpMetricsAddr string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lexiq tools to MCP clients",
	Long: `Serve the analyze, clear_cache and close_document tools to an assistant.

The client sends the full text of a document on every edit under a stable
document_id. lexiq keeps one session per document, so unchanged revisions are
answered from cache and small edits only re-analyse what changed.

JSON-RPC runs over stdin/stdout unless --http is given. To register lexiq with
a desktop client, point it at this command:

  {"mcpServers": {"lexiq": {"command": "lexiq", "args": ["mcp", "serve"]}}}`,
	Example: `  lexiq mcp serve
  lexiq mcp serve --http :8080 --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck // Best-effort close on exit

	server, err := mcp.NewServer(&mcp.Ports{
		Sessions: eng.sessions,
		Defaults: eng.settings.Analysis,
	})
	if err != nil {
		return err
	}
	eng.serveMetrics(ctx, mcpMetricsAddr)

	if mcpHTTPAddr == "" {
		// stdout is the JSON-RPC channel; nothing else may be printed.
		return server.Run(ctx)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on %s\n", mcpHTTPAddr)
	return server.RunHTTP(ctx, mcpHTTPAddr)
}
