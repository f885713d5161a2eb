package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/franz/setlist/internal/mcpserver"
	"github.com/franz/setlist/internal/util"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server on stdin/stdout",
	Long: `Run a Model Context Protocol server over stdio.

Tools: list_locations, select_location, list_songs, add_song,
suggest_order, suggest_tip. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol
	util.SetOutput(os.Stderr)

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	stopWatch := watchStore(a)
	defer stopWatch()

	util.DebugLog("MCP server ready on stdio (%s)", a.dbPath)
	return mcpserver.Serve(mcpserver.NewServer(a.ctrl, Version))
}
