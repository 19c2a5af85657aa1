package mcpserver

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"deskbot/internal/quickbase"
)

// create_ticket

type createTicketInput struct {
	Subject     string `json:"subject" jsonschema:"Short ticket subject line"`
	Description string `json:"description" jsonschema:"Full issue description"`
	Priority    string `json:"priority,omitempty" jsonschema:"Low, Medium, High, or Critical (default Medium)"`
	Category    string `json:"category,omitempty" jsonschema:"Ticket category (default General Support)"`
	UserEmail   string `json:"user_email" jsonschema:"Email of the user the ticket is for"`
	UserName    string `json:"user_name,omitempty" jsonschema:"Display name of the user (optional)"`
}

type createTicketOutput struct {
	TicketNumber string `json:"ticket_number"`
	Status       string `json:"status"`
	DueDate      string `json:"due_date"`
	URL          string `json:"url"`
}

func (t *tools) createTicketHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input createTicketInput) (*mcpsdk.CallToolResult, createTicketOutput, error) {
	if input.Subject == "" || input.Description == "" || input.UserEmail == "" {
		return nil, createTicketOutput{}, fmt.Errorf("subject, description, and user_email are required")
	}
	priority := input.Priority
	if priority == "" {
		priority = "Medium"
	}
	category := input.Category
	if category == "" {
		category = "General Support"
	}

	ticket, err := t.tickets.CreateTicket(ctx, quickbase.NewTicket{
		Subject:     input.Subject,
		Description: input.Description,
		Priority:    priority,
		Category:    category,
		UserEmail:   input.UserEmail,
		UserName:    input.UserName,
	})
	if err != nil {
		return nil, createTicketOutput{}, fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil, createTicketOutput{
		TicketNumber: ticket.TicketNumber,
		Status:       ticket.Status,
		DueDate:      ticket.DueDate,
		URL:          ticket.URL,
	}, nil
}

// ticket_status

type ticketStatusInput struct {
	TicketNumber string `json:"ticket_number" jsonschema:"Ticket number, e.g. IT-20250301120000"`
}

type ticketStatusOutput struct {
	Found  bool              `json:"found"`
	Ticket *quickbase.Ticket `json:"ticket,omitempty"`
}

func (t *tools) ticketStatusHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input ticketStatusInput) (*mcpsdk.CallToolResult, ticketStatusOutput, error) {
	if input.TicketNumber == "" {
		return nil, ticketStatusOutput{}, fmt.Errorf("ticket_number is required")
	}

	ticket, err := t.tickets.GetTicket(ctx, strings.ToUpper(input.TicketNumber))
	if err != nil {
		return nil, ticketStatusOutput{}, fmt.Errorf("ticket lookup failed: %w", err)
	}
	if ticket == nil {
		return nil, ticketStatusOutput{Found: false}, nil
	}
	return nil, ticketStatusOutput{Found: true, Ticket: ticket}, nil
}

// user_tickets

type userTicketsInput struct {
	Email string `json:"email" jsonschema:"User email address"`
}

type userTicketsOutput struct {
	Tickets []quickbase.Ticket `json:"tickets"`
}

func (t *tools) userTicketsHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input userTicketsInput) (*mcpsdk.CallToolResult, userTicketsOutput, error) {
	if input.Email == "" {
		return nil, userTicketsOutput{}, fmt.Errorf("email is required")
	}

	tickets, err := t.tickets.UserTickets(ctx, input.Email)
	if err != nil {
		return nil, userTicketsOutput{}, fmt.Errorf("failed to list tickets: %w", err)
	}
	return nil, userTicketsOutput{Tickets: tickets}, nil
}

// update_ticket

type updateTicketInput struct {
	TicketNumber string  `json:"ticket_number" jsonschema:"Ticket number to update"`
	Status       string  `json:"status,omitempty" jsonschema:"New status (optional)"`
	Resolution   string  `json:"resolution,omitempty" jsonschema:"Resolution notes (optional)"`
	TimeSpent    float64 `json:"time_spent,omitempty" jsonschema:"Hours spent (optional)"`
}

type updateTicketOutput struct {
	Updated bool `json:"updated"`
}

func (t *tools) updateTicketHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input updateTicketInput) (*mcpsdk.CallToolResult, updateTicketOutput, error) {
	if input.TicketNumber == "" {
		return nil, updateTicketOutput{}, fmt.Errorf("ticket_number is required")
	}
	if input.Status == "" && input.Resolution == "" && input.TimeSpent == 0 {
		return nil, updateTicketOutput{}, fmt.Errorf("nothing to update")
	}

	err := t.tickets.UpdateTicket(ctx, quickbase.Update{
		TicketNumber: strings.ToUpper(input.TicketNumber),
		Status:       input.Status,
		Resolution:   input.Resolution,
		TimeSpent:    input.TimeSpent,
	})
	if err != nil {
		return nil, updateTicketOutput{}, fmt.Errorf("failed to update ticket: %w", err)
	}
	return nil, updateTicketOutput{Updated: true}, nil
}
