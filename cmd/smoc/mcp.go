package main

import (
	"github.com/aretw0/smoc/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [flow-url]",
	Short: "Expose a conversation as a Model Context Protocol (MCP) server",
	Long: `Joins the conversation behind the flow URL and lets AI agents read and
answer it through MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP when --sse-addr is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		sseAddr, _ := cmd.Flags().GetString("sse-addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		return cli.RunMCP(cli.MCPOptions{
			Config:  cfg,
			Debug:   debug,
			SSEAddr: sseAddr,
			BaseURL: baseURL,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	addHostFlags(mcpCmd)

	mcpCmd.Flags().String("sse-addr", "", "Serve MCP over SSE on this address instead of Stdio")
	mcpCmd.Flags().String("base-url", "", "Public base URL of the SSE server")
}
