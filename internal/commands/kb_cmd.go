package commands

import (
	"fmt"
	"strings"

	"deskbot/internal/config"
	"deskbot/internal/output"
)

// RunKBList prints the knowledge base entries.
func RunKBList() {
	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}
	knowledge, err := buildKnowledge(cfg)
	if err != nil {
		output.PrintError(err)
		return
	}

	entries := knowledge.Entries()
	output.Print(entries, func() {
		fmt.Printf("%d knowledge base entries\n\n", len(entries))
		for _, e := range entries {
			fmt.Printf("  %s (%s)\n", e.Key, e.Category)
			fmt.Printf("    keywords: %s\n", strings.Join(e.Keywords, ", "))
		}
	})
}
