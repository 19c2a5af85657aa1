package mcpserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"deskbot/internal/quickbase"
)

// ticket_stats

type ticketStatsInput struct{}

type ticketStatsOutput struct {
	quickbase.Stats
}

func (t *tools) ticketStatsHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input ticketStatsInput) (*mcpsdk.CallToolResult, ticketStatsOutput, error) {
	stats, err := t.tickets.Stats(ctx)
	if err != nil {
		return nil, ticketStatsOutput{}, fmt.Errorf("failed to gather stats: %w", err)
	}
	return nil, ticketStatsOutput{Stats: *stats}, nil
}
