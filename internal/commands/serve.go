package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deskbot/internal/cards"
	"deskbot/internal/config"
	"deskbot/internal/digest"
	"deskbot/internal/httpserver"
	"deskbot/internal/notify"
	"deskbot/internal/quickbase"
	"deskbot/internal/store"
	"deskbot/internal/teams"
	"deskbot/internal/ui"
)

// RunServe is the entry point for `deskbot serve`: the full bot with
// Teams messaging, ticketing, history storage, IT-channel notifications,
// and the scheduled digest.
func RunServe() {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServe(); err != nil {
		ui.ShowError("Configuration incomplete", err)
		ui.ShowInfo("Run 'deskbot doctor' for a full check")
		os.Exit(1)
	}

	chain, err := buildChain(cfg)
	if err != nil {
		ui.ShowError("Failed to build support chain", err)
		os.Exit(1)
	}

	history, err := store.Open(cfg.StorePath)
	if err != nil {
		ui.ShowError("Failed to open store", err)
		os.Exit(1)
	}
	defer history.Close()

	connector := teams.NewClient(cfg.Teams)
	tickets := quickbase.NewClient(cfg.QuickBase)
	announcer, channelNotifier := buildAnnouncer(cfg, connector)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Scheduled digest (goroutine inside cron).
	if cfg.Digest.Enabled {
		dg := digest.New(cfg.Digest.Schedule, tickets, history, channelNotifier)
		if err := dg.Start(); err != nil {
			ui.ShowError("Failed to start digest schedule", err)
			os.Exit(1)
		}
		defer dg.Stop()
		fmt.Printf("Digest scheduled: %s\n", cfg.Digest.Schedule)
	}

	server := httpserver.New(httpserver.Options{
		Chain:     chain,
		Connector: connector,
		Tickets:   tickets,
		History:   history,
		Notifier:  announcer,
		Config:    cfg,
		Version:   Version,
	})

	go func() {
		<-ctx.Done()
		shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		if err := server.Shutdown(shutCtx); err != nil {
			fmt.Fprintf(os.Stderr, "[http] shutdown error: %v\n", err)
		}
	}()

	fmt.Printf("deskbot listening on %s\n", cfg.Server.Addr)
	if err := server.ListenAndServe(cfg.Server.Addr); err != nil && err.Error() != "http: Server closed" {
		ui.ShowError("Server error", err)
		os.Exit(1)
	}
	fmt.Println("\nShutting down...")
}

// ticketAnnouncer fans new-ticket events out to the IT channel webhook
// and the optional hook script.
type ticketAnnouncer struct {
	notifier notify.Notifier
	hook     *notify.HookRunner
}

func (a *ticketAnnouncer) TicketCreated(t *quickbase.Ticket) {
	if a.notifier != nil {
		err := a.notifier.Send(notify.Notification{
			Title:   "New Support Ticket",
			Message: fmt.Sprintf("%s: %s (%s, %s)", t.TicketNumber, t.Subject, t.Priority, t.Category),
			Card:    cards.ITNotification(t),
		})
		if err != nil {
			log.Printf("[notify] IT channel notification failed: %v", err)
		}
	}
	if a.hook != nil {
		err := a.hook.Execute(notify.HookPayload{
			TicketNumber: t.TicketNumber,
			Subject:      t.Subject,
			Status:       t.Status,
			Priority:     t.Priority,
			Category:     t.Category,
			UserEmail:    t.SubmittedBy,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("[notify] hook script failed: %v", err)
		}
	}
}

// teamsChannelNotifier posts notifications into a Teams channel as
// Adaptive Cards through the Bot Framework.
type teamsChannelNotifier struct {
	client    *teams.Client
	channelID string
}

func (n *teamsChannelNotifier) Send(msg notify.Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	card := msg.Card
	if card == nil {
		card = cards.Notice(msg.Title, msg.Message)
	}
	return n.client.SendToChannel(ctx, n.channelID, card)
}

func (n *teamsChannelNotifier) Name() string { return "teams-channel" }

// buildAnnouncer wires the configured notification targets. The returned
// notify.Notifier is what the digest posts through; it is never nil.
func buildAnnouncer(cfg *config.Config, connector *teams.Client) (*ticketAnnouncer, notify.Notifier) {
	var targets []notify.Notifier
	if cfg.Notify.ITChannelWebhook != "" {
		targets = append(targets, notify.NewWebhookNotifier(cfg.Notify.ITChannelWebhook, cfg.Notify.Format, nil))
	}
	if cfg.Notify.ITChannelID != "" {
		targets = append(targets, &teamsChannelNotifier{client: connector, channelID: cfg.Notify.ITChannelID})
	}

	var channelNotifier notify.Notifier = notify.Noop{}
	switch {
	case len(targets) == 1:
		channelNotifier = targets[0]
	case len(targets) > 1:
		channelNotifier = notify.NewMultiNotifier(targets...)
	}

	a := &ticketAnnouncer{}
	if len(targets) > 0 {
		a.notifier = channelNotifier
	}
	if cfg.Notify.HookScript != "" {
		a.hook = notify.NewHookRunner(cfg.Notify.HookScript)
	}
	return a, channelNotifier
}
