package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"deskbot/internal/config"
	"deskbot/internal/output"
	"deskbot/internal/supportchain"
)

// askResult is the JSON shape of a one-shot answer.
type askResult struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Category   string   `json:"category,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	NeedsHuman bool     `json:"needsHuman"`
	Sources    []string `json:"sources,omitempty"`
	TicketRef  string   `json:"ticketRef,omitempty"`
}

// RunAsk answers one question on the command line and exits.
func RunAsk(args []string) {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		output.PrintError(fmt.Errorf("empty question"))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		output.PrintError(err)
		return
	}
	chain, err := buildChain(cfg)
	if err != nil {
		output.PrintError(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	env := chain.Process(ctx, question)

	result := askResult{
		Question:   question,
		Answer:     env.Solution,
		Confidence: env.Confidence,
		Category:   env.Category,
		Priority:   string(env.Priority),
		NeedsHuman: env.NeedsHuman,
		Sources:    env.Sources,
		TicketRef:  env.TicketRef,
	}
	switch env.Type {
	case supportchain.EnvelopeStatusCheck:
		result.Answer = "status check for " + env.TicketRef
	case supportchain.EnvelopeCommand:
		result.Answer = "commands are handled by the Teams endpoint"
	}

	output.Print(result, func() {
		fmt.Println(result.Answer)
		if result.Confidence > 0 {
			fmt.Fprintf(os.Stderr, "\n[%.0f%% confident", result.Confidence*100)
			if result.Category != "" {
				fmt.Fprintf(os.Stderr, ", %s", result.Category)
			}
			if len(result.Sources) > 0 {
				fmt.Fprintf(os.Stderr, ", sources: %s", strings.Join(result.Sources, ", "))
			}
			fmt.Fprintln(os.Stderr, "]")
		}
	})
}
