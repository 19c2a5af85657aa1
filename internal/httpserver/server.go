// Package httpserver exposes the bot's HTTP surface: the Teams messaging
// endpoint, the ticket-closed webhook, a health check, and a debug chat
// bridge.
package httpserver

import (
	"context"
	"log"
	"net/http"

	"deskbot/internal/config"
	"deskbot/internal/quickbase"
	"deskbot/internal/store"
	"deskbot/internal/supportchain"
	"deskbot/internal/teams"
)

// Connector is the slice of the Teams client the server uses.
type Connector interface {
	ReplyText(ctx context.Context, inbound *teams.Activity, text string) error
	ReplyCard(ctx context.Context, inbound *teams.Activity, card any) error
	UpdateCard(ctx context.Context, inbound *teams.Activity, card any) error
	Typing(ctx context.Context, inbound *teams.Activity) error
	SendProactiveCard(ctx context.Context, ref teams.ConversationRef, card any) error
	UserInfo(ctx context.Context, inbound *teams.Activity, userID string) (*teams.Member, error)
}

// TicketAPI is the slice of the QuickBase client the server uses.
type TicketAPI interface {
	CreateTicket(ctx context.Context, t quickbase.NewTicket) (*quickbase.Ticket, error)
	GetTicket(ctx context.Context, ticketNumber string) (*quickbase.Ticket, error)
	UserTickets(ctx context.Context, email string) ([]quickbase.Ticket, error)
	ResolveTicket(ctx context.Context, ticketNumber, resolution, resolvedBy string) error
	Stats(ctx context.Context) (*quickbase.Stats, error)
}

// History persists conversation references and interaction records.
type History interface {
	SaveRef(ctx context.Context, userEmail string, ref teams.ConversationRef) error
	Ref(ctx context.Context, userEmail string) (*teams.ConversationRef, error)
	RecordInteraction(ctx context.Context, in store.Interaction) (string, error)
	SetFeedback(ctx context.Context, userEmail, question string, helpful bool) error
}

// Notifier announces tickets that need IT attention.
type Notifier interface {
	TicketCreated(t *quickbase.Ticket)
}

// Server is the bot's HTTP API server.
type Server struct {
	mux           *http.ServeMux
	srv           *http.Server
	chain         *supportchain.Chain
	connector     Connector
	tickets       TicketAPI
	history       History
	notifier      Notifier
	webhookSecret string
	debugTokens   []string
	version       string
}

// Options collects the Server's dependencies.
type Options struct {
	Chain     *supportchain.Chain
	Connector Connector
	Tickets   TicketAPI
	History   History
	Notifier  Notifier
	Config    *config.Config
	Version   string
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		chain:     opts.Chain,
		connector: opts.Connector,
		tickets:   opts.Tickets,
		history:   opts.History,
		notifier:  opts.Notifier,
		version:   opts.Version,
	}
	if opts.Config != nil {
		s.webhookSecret = opts.Config.QuickBase.WebhookSecret
		s.debugTokens = opts.Config.Server.DebugTokens
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up all HTTP routes with middleware
func (s *Server) registerRoutes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/health", loggingMiddleware(s.handleHealth))

	// Bot Framework posts activities here.
	s.mux.HandleFunc("/api/messages", loggingMiddleware(jsonContentTypeMiddleware(s.handleMessages)))

	// QuickBase automation posts ticket-closed events here.
	s.mux.HandleFunc("/webhook/ticket-closed", loggingMiddleware(s.handleTicketClosed))

	// Local debug chat over WebSocket, token protected.
	s.mux.HandleFunc("/debug/chat", loggingMiddleware(s.authMiddleware(s.handleDebugChat)))
}

// Handler returns the server's root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe starts the HTTP server on the given address
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("[HTTP] Starting server on %s", addr)
	s.srv = &http.Server{Addr: addr, Handler: s.mux}
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops a running server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
