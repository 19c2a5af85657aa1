package mcpserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"deskbot/internal/kb"
	"deskbot/internal/quickbase"
	"deskbot/internal/supportchain"
)

// TicketAPI is the slice of the ticket client the tools need.
type TicketAPI interface {
	CreateTicket(ctx context.Context, t quickbase.NewTicket) (*quickbase.Ticket, error)
	GetTicket(ctx context.Context, ticketNumber string) (*quickbase.Ticket, error)
	UserTickets(ctx context.Context, email string) ([]quickbase.Ticket, error)
	UpdateTicket(ctx context.Context, u quickbase.Update) error
	Stats(ctx context.Context) (*quickbase.Stats, error)
}

// tools holds the dependencies the handlers close over.
type tools struct {
	chain     *supportchain.Chain
	tickets   TicketAPI
	knowledge *kb.KnowledgeBase
}

// RunServer starts the MCP server over stdio transport, exposing the
// support pipeline and the ticket system as tools.
func RunServer(chain *supportchain.Chain, tickets TicketAPI, knowledge *kb.KnowledgeBase, version string) error {
	t := &tools{chain: chain, tickets: tickets, knowledge: knowledge}

	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "deskbot",
			Version: version,
		},
		nil,
	)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "resolve_issue",
		Description: "Run an IT support question through the triage and answer pipeline; returns a solution with confidence and routing metadata",
	}, t.resolveIssueHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "search_kb",
		Description: "Look up the static IT knowledge base by keyword match",
	}, t.searchKBHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "create_ticket",
		Description: "Create a support ticket in the ticket system",
	}, t.createTicketHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "ticket_status",
		Description: "Look up a ticket by its ticket number",
	}, t.ticketStatusHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "user_tickets",
		Description: "List a user's open tickets by email address",
	}, t.userTicketsHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "update_ticket",
		Description: "Update a ticket's status, resolution, or time spent",
	}, t.updateTicketHandler)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "ticket_stats",
		Description: "Get ticket queue statistics: open counts, resolutions today, and priority breakdown",
	}, t.ticketStatsHandler)

	return server.Run(context.Background(), &mcpsdk.StdioTransport{})
}
