package commands

import (
	"log"
	"os"

	"deskbot/internal/config"
	mcpserver "deskbot/internal/mcp"
	"deskbot/internal/quickbase"
	"deskbot/internal/ui"
)

// RunMCP starts the MCP server on stdio. Log output moves to stderr so
// stdout stays clean for the JSON-RPC stream.
func RunMCP() {
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		os.Exit(1)
	}

	chain, err := buildChain(cfg)
	if err != nil {
		ui.ShowError("Failed to build support chain", err)
		os.Exit(1)
	}
	knowledge, err := buildKnowledge(cfg)
	if err != nil {
		ui.ShowError("Failed to load knowledge base", err)
		os.Exit(1)
	}

	tickets := quickbase.NewClient(cfg.QuickBase)

	if err := mcpserver.RunServer(chain, tickets, knowledge, Version); err != nil && err.Error() != "server is closing: EOF" {
		ui.ShowError("MCP server error", err)
		os.Exit(1)
	}
}
