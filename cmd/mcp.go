package cmd

import (
	"github.com/huangsam/revscore/internal/iocache"
	"github.com/huangsam/revscore/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the revscore MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents train, evaluate, score
comments and record feedback via standard tools.

Logs go to stderr, since stdout carries the protocol.`,
	PreRunE: engineSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, engine, iocache.Manager, version)
	},
}
