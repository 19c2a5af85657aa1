package mcpserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"deskbot/internal/supportchain"
)

// resolve_issue

type resolveIssueInput struct {
	Question string `json:"question" jsonschema:"The user's IT support question"`
}

type resolveIssueOutput struct {
	ResultType string   `json:"resultType"`
	TicketRef  string   `json:"ticketRef,omitempty"`
	Solution   string   `json:"solution,omitempty"`
	Confidence float64  `json:"confidence"`
	Category   string   `json:"category,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	NeedsHuman bool     `json:"needsHuman"`
	Sources    []string `json:"sources,omitempty"`
}

func (t *tools) resolveIssueHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input resolveIssueInput) (*mcpsdk.CallToolResult, resolveIssueOutput, error) {
	if input.Question == "" {
		return nil, resolveIssueOutput{}, fmt.Errorf("question is required")
	}

	env := t.chain.Process(ctx, input.Question)
	out := resolveIssueOutput{
		ResultType: string(env.Type),
		TicketRef:  env.TicketRef,
		Solution:   env.Solution,
		Confidence: env.Confidence,
		Category:   env.Category,
		Priority:   string(env.Priority),
		NeedsHuman: env.NeedsHuman,
		Sources:    env.Sources,
	}
	if env.Type == supportchain.EnvelopeCommand {
		return nil, out, fmt.Errorf("commands are not supported through this tool")
	}
	return nil, out, nil
}

// search_kb

type searchKBInput struct {
	Query string `json:"query" jsonschema:"Keywords describing the issue"`
}

type searchKBOutput struct {
	Found    bool   `json:"found"`
	Key      string `json:"key,omitempty"`
	Category string `json:"category,omitempty"`
	Solution string `json:"solution,omitempty"`
}

func (t *tools) searchKBHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input searchKBInput) (*mcpsdk.CallToolResult, searchKBOutput, error) {
	if input.Query == "" {
		return nil, searchKBOutput{}, fmt.Errorf("query is required")
	}

	entry, ok := t.knowledge.Lookup(input.Query)
	if !ok {
		return nil, searchKBOutput{Found: false}, nil
	}
	return nil, searchKBOutput{
		Found:    true,
		Key:      entry.Key,
		Category: entry.Category,
		Solution: entry.Solution,
	}, nil
}
