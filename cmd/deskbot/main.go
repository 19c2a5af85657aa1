package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"deskbot/internal/commands"
	"deskbot/internal/output"
)

var jsonFlag bool

var rootCmd = &cobra.Command{
	Use:   "deskbot",
	Short: "An IT support chatbot for Microsoft Teams",
	Long:  "deskbot answers IT support questions over Teams, creates QuickBase tickets for everything it touches, and escalates what it cannot solve",
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output in JSON format")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ChatCmd)
	rootCmd.AddCommand(commands.AskCmd)
	rootCmd.AddCommand(commands.StatsCmd)
	rootCmd.AddCommand(commands.KBCmd)
	rootCmd.AddCommand(commands.MCPCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.DoctorCmd)
	rootCmd.AddCommand(commands.VersionCmd)
	rootCmd.AddCommand(commands.CompletionCmd)

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		// With a terminal attached, bare `deskbot` opens the chat console.
		if term.IsTerminal(int(os.Stdin.Fd())) {
			commands.RunChat("", "")
			return
		}
		cmd.Help()
	}
}

func main() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.JSONMode = jsonFlag
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
