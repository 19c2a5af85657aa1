package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ServeCmd runs the Teams bot server.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Teams bot server",
	Long:  "Start the HTTP server that handles Teams messages, card actions, the ticket-closed webhook, and the debug chat endpoint",
	Run: func(cmd *cobra.Command, args []string) {
		RunServe()
	},
}

// ChatCmd opens the interactive console.
var ChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive support console",
	Long:  "Chat with the support pipeline in the terminal. By default the chain runs in-process; use --remote to talk to a running server's debug chat endpoint.",
	Run: func(cmd *cobra.Command, args []string) {
		remote, _ := cmd.Flags().GetString("remote")
		token, _ := cmd.Flags().GetString("token")
		RunChat(remote, token)
	},
}

// AskCmd answers a single question and exits.
var AskCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question and print the answer",
	Long:  "Run one question through the support pipeline and print the answer. No Teams delivery and no ticket, just the chain.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunAsk(args)
	},
}

// StatsCmd prints ticket queue statistics.
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ticket queue statistics",
	Long:  "Query the ticket system for open counts, today's resolutions, and the priority breakdown",
	Run: func(cmd *cobra.Command, args []string) {
		RunStats()
	},
}

// KBCmd lists the static knowledge base.
var KBCmd = &cobra.Command{
	Use:   "kb",
	Short: "List knowledge base entries",
	Long:  "List the static knowledge base entries the generator draws on, with their keywords",
	Run: func(cmd *cobra.Command, args []string) {
		RunKBList()
	},
}

// MCPCmd runs the MCP server over stdio.
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server mode",
	Long:  "Expose the support pipeline and ticket system as MCP tools over stdio",
	Run: func(cmd *cobra.Command, args []string) {
		RunMCP()
	},
}

// ConfigCmd is the parent for configuration commands.
var ConfigCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"c"},
	Short:   "Manage configuration",
	Long:    "Show or change deskbot settings",
}

// ConfigShowCmd prints the current configuration.
var ConfigShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Print the resolved configuration with secrets redacted",
	Run: func(cmd *cobra.Command, args []string) {
		RunConfigShow()
	},
}

// ConfigSetCmd sets a configuration value.
var ConfigSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value (keys: server.addr, notify.webhook, notify.format, digest.enabled, digest.schedule, kbPath, storePath)",
	Args:  cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return configKeys, cobra.ShellCompDirectiveNoFileComp
		}
		if len(args) == 1 {
			switch args[0] {
			case "notify.format":
				return []string{"teams", "slack", "custom"}, cobra.ShellCompDirectiveNoFileComp
			case "digest.enabled":
				return []string{"true", "false"}, cobra.ShellCompDirectiveNoFileComp
			}
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		RunConfigSet(args[0], args[1])
	},
}

// DoctorCmd runs diagnostics.
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run system diagnostics",
	Long:  "Check configuration, model providers, Teams credentials, the ticket system, and local storage",
	Run: func(cmd *cobra.Command, args []string) {
		RunDoctor()
	},
}

// VersionCmd prints the version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show deskbot version",
	Run: func(cmd *cobra.Command, args []string) {
		RunVersion()
	},
}

// CompletionCmd generates shell completion scripts.
var CompletionCmd = &cobra.Command{
	Use:    "completion [bash|zsh|fish|powershell]",
	Short:  "Generate shell completion script",
	Hidden: true,
	Long: `Generate shell completion script for the specified shell.

Usage examples:
  # Bash
  source <(deskbot completion bash)

  # Zsh
  source <(deskbot completion zsh)

  # Fish
  deskbot completion fish | source

  # PowerShell
  deskbot completion powershell | Out-String | Invoke-Expression`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(os.Stdout, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return fmt.Errorf("unsupported shell: %s", args[0])
	},
}

func init() {
	ChatCmd.Flags().StringP("remote", "r", "", "host:port of a running server to chat against")
	ChatCmd.Flags().StringP("token", "t", "", "debug token for --remote mode")

	ConfigCmd.AddCommand(ConfigShowCmd)
	ConfigCmd.AddCommand(ConfigSetCmd)
}
