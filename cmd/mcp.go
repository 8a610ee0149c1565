package cmd

import (
	"github.com/GarnettJZ/makan-apa/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the makan MCP server",
	Long:  `Launch an MCP server that allows AI agents to find shared free time via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Headers are suppressed per call so stdio stays clean for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
