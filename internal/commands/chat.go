package commands

import (
	"os"

	"deskbot/internal/config"
	"deskbot/internal/tui"
	"deskbot/internal/ui"
)

// RunChat opens the interactive console. With remoteAddr set, it talks to
// a running server's debug chat endpoint; otherwise the chain runs
// in-process against the configured providers.
func RunChat(remoteAddr, token string) {
	var backend tui.Backend

	if remoteAddr != "" {
		if token == "" {
			token = os.Getenv("DESKBOT_DEBUG_TOKEN")
		}
		if token == "" {
			ui.ShowError("--remote requires a debug token (--token or DESKBOT_DEBUG_TOKEN)", nil)
			os.Exit(1)
		}
		remote, err := tui.NewRemoteBackend(remoteAddr, token)
		if err != nil {
			ui.ShowError("Failed to connect", err)
			os.Exit(1)
		}
		backend = remote
	} else {
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
		backend = tui.NewLocalBackend(chain)
	}

	if err := tui.Run(backend); err != nil {
		ui.ShowError("Console error", err)
		os.Exit(1)
	}
}
