package mcpserver

import (
	"context"
	"errors"
	"testing"

	"deskbot/internal/kb"
	"deskbot/internal/llm"
	"deskbot/internal/quickbase"
	"deskbot/internal/supportchain"
)

type stubProvider struct {
	outputs []string
	calls   int
}

func (p *stubProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	if p.calls >= len(p.outputs) {
		return "", errors.New("no scripted output")
	}
	out := p.outputs[p.calls]
	p.calls++
	return out, nil
}

func (p *stubProvider) Name() string { return "stub" }

type stubTickets struct {
	created []quickbase.NewTicket
	updated []quickbase.Update
	ticket  *quickbase.Ticket
	list    []quickbase.Ticket
	stats   *quickbase.Stats
	err     error
}

func (s *stubTickets) CreateTicket(ctx context.Context, t quickbase.NewTicket) (*quickbase.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, t)
	return &quickbase.Ticket{
		TicketNumber: "IT-20250303100000",
		Status:       quickbase.StatusNew,
		DueDate:      "2025-03-04",
		URL:          "https://example.quickbase.com/db/bq?a=dr&rid=1",
	}, nil
}

func (s *stubTickets) GetTicket(ctx context.Context, num string) (*quickbase.Ticket, error) {
	return s.ticket, s.err
}

func (s *stubTickets) UserTickets(ctx context.Context, email string) ([]quickbase.Ticket, error) {
	return s.list, s.err
}

func (s *stubTickets) UpdateTicket(ctx context.Context, u quickbase.Update) error {
	if s.err != nil {
		return s.err
	}
	s.updated = append(s.updated, u)
	return nil
}

func (s *stubTickets) Stats(ctx context.Context) (*quickbase.Stats, error) {
	return s.stats, s.err
}

func newTestTools(t *testing.T, outputs ...string) (*tools, *stubTickets) {
	t.Helper()
	provider := &stubProvider{outputs: outputs}
	knowledge, err := kb.Default()
	if err != nil {
		t.Fatalf("load knowledge base: %v", err)
	}
	tickets := &stubTickets{}
	return &tools{
		chain: supportchain.New(
			supportchain.NewRouter(provider),
			supportchain.NewGenerator(provider, knowledge),
		),
		tickets:   tickets,
		knowledge: knowledge,
	}, tickets
}

func TestResolveIssue(t *testing.T) {
	tl, _ := newTestTools(t,
		`{"intent":"quick_fix","confidence":0.9,"reasoning":"r","category":"VPN Access","priority":"Medium"}`,
		"Restart the VPN client and sign in again.",
	)

	_, out, err := tl.resolveIssueHandler(context.Background(), nil, resolveIssueInput{Question: "vpn is not connecting"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Solution == "" {
		t.Error("solution is empty")
	}
	if out.Confidence <= 0 {
		t.Errorf("confidence = %v", out.Confidence)
	}
	if out.NeedsHuman {
		t.Error("quick fix marked needs_human")
	}
}

func TestResolveIssueStatusCheck(t *testing.T) {
	tl, _ := newTestTools(t)

	_, out, err := tl.resolveIssueHandler(context.Background(), nil, resolveIssueInput{Question: "where is IT-1234"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.TicketRef != "IT-1234" {
		t.Errorf("ticketRef = %q", out.TicketRef)
	}
}

func TestResolveIssueRequiresQuestion(t *testing.T) {
	tl, _ := newTestTools(t)
	if _, _, err := tl.resolveIssueHandler(context.Background(), nil, resolveIssueInput{}); err == nil {
		t.Error("want error for empty question")
	}
}

func TestSearchKB(t *testing.T) {
	tl, _ := newTestTools(t)

	_, out, err := tl.searchKBHandler(context.Background(), nil, searchKBInput{Query: "vpn not connecting"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !out.Found || out.Solution == "" {
		t.Errorf("out = %+v", out)
	}

	_, out, err = tl.searchKBHandler(context.Background(), nil, searchKBInput{Query: "zzz nothing matches this"})
	if err != nil {
		t.Fatalf("search miss: %v", err)
	}
	if out.Found {
		t.Error("unexpected match")
	}
}

func TestCreateTicketTool(t *testing.T) {
	tl, tickets := newTestTools(t)

	_, out, err := tl.createTicketHandler(context.Background(), nil, createTicketInput{
		Subject:     "Printer jam",
		Description: "3rd floor printer keeps jamming",
		UserEmail:   "pat@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.TicketNumber == "" || out.URL == "" {
		t.Errorf("out = %+v", out)
	}
	if len(tickets.created) != 1 {
		t.Fatalf("created = %d", len(tickets.created))
	}
	if tickets.created[0].Priority != "Medium" || tickets.created[0].Category != "General Support" {
		t.Errorf("defaults not applied: %+v", tickets.created[0])
	}
}

func TestCreateTicketToolValidation(t *testing.T) {
	tl, _ := newTestTools(t)
	if _, _, err := tl.createTicketHandler(context.Background(), nil, createTicketInput{Subject: "x"}); err == nil {
		t.Error("want error for missing fields")
	}
}

func TestTicketStatusTool(t *testing.T) {
	tl, tickets := newTestTools(t)
	tickets.ticket = &quickbase.Ticket{TicketNumber: "IT-1", Status: "In Progress"}

	_, out, err := tl.ticketStatusHandler(context.Background(), nil, ticketStatusInput{TicketNumber: "it-1"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !out.Found || out.Ticket.Status != "In Progress" {
		t.Errorf("out = %+v", out)
	}
}

func TestTicketStatusToolNotFound(t *testing.T) {
	tl, _ := newTestTools(t)

	_, out, err := tl.ticketStatusHandler(context.Background(), nil, ticketStatusInput{TicketNumber: "IT-404"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if out.Found {
		t.Error("want not found")
	}
}

func TestUpdateTicketTool(t *testing.T) {
	tl, tickets := newTestTools(t)

	_, out, err := tl.updateTicketHandler(context.Background(), nil, updateTicketInput{
		TicketNumber: "it-5",
		Status:       "Resolved",
		Resolution:   "Rebooted",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !out.Updated {
		t.Error("not updated")
	}
	if tickets.updated[0].TicketNumber != "IT-5" {
		t.Errorf("ticket number not normalized: %q", tickets.updated[0].TicketNumber)
	}
}

func TestUpdateTicketToolNothingToDo(t *testing.T) {
	tl, _ := newTestTools(t)
	if _, _, err := tl.updateTicketHandler(context.Background(), nil, updateTicketInput{TicketNumber: "IT-1"}); err == nil {
		t.Error("want error when no fields set")
	}
}

func TestTicketStatsTool(t *testing.T) {
	tl, tickets := newTestTools(t)
	tickets.stats = &quickbase.Stats{TotalOpen: 7, ByPriority: map[string]int{"High": 2}}

	_, out, err := tl.ticketStatsHandler(context.Background(), nil, ticketStatsInput{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if out.TotalOpen != 7 || out.ByPriority["High"] != 2 {
		t.Errorf("out = %+v", out)
	}
}
