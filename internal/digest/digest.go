// Package digest posts a scheduled ticket-statistics summary to the IT
// channel.
package digest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"deskbot/internal/cards"
	"deskbot/internal/notify"
	"deskbot/internal/quickbase"
	"deskbot/internal/store"
)

// TicketStats is the slice of the ticket client the digest needs.
type TicketStats interface {
	Stats(ctx context.Context) (*quickbase.Stats, error)
}

// UsageStats is the slice of the interaction store the digest needs.
type UsageStats interface {
	Usage(ctx context.Context, since time.Time) (*store.UsageStats, error)
}

// Digest runs the stats summary on a cron schedule.
type Digest struct {
	schedule string
	tickets  TicketStats
	usage    UsageStats
	notifier notify.Notifier

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a Digest with the given cron schedule.
func New(schedule string, tickets TicketStats, usage UsageStats, notifier notify.Notifier) *Digest {
	return &Digest{
		schedule: schedule,
		tickets:  tickets,
		usage:    usage,
		notifier: notifier,
	}
}

// Start registers the schedule and begins dispatching.
func (d *Digest) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cron = cron.New()
	if _, err := d.cron.AddFunc(d.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := d.Run(ctx); err != nil {
			log.Printf("[digest] run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register digest schedule %q: %w", d.schedule, err)
	}
	d.cron.Start()
	log.Printf("[digest] started with schedule %q", d.schedule)
	return nil
}

// Stop shuts down the cron runner, waiting for a running job to finish.
func (d *Digest) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron != nil {
		ctx := d.cron.Stop()
		<-ctx.Done()
		d.cron = nil
	}
	log.Printf("[digest] stopped")
}

// Run gathers stats and posts one digest immediately.
func (d *Digest) Run(ctx context.Context) error {
	ticketStats, err := d.tickets.Stats(ctx)
	if err != nil {
		return fmt.Errorf("gather ticket stats: %w", err)
	}

	n := notify.Notification{
		Title:   "Daily IT Support Digest",
		Message: summaryText(ticketStats, nil),
		Card:    cards.Statistics(ticketStats),
	}

	// Usage counters are best effort; the digest still goes out without them.
	if d.usage != nil {
		if usage, err := d.usage.Usage(ctx, time.Now().Add(-24*time.Hour)); err == nil {
			n.Message = summaryText(ticketStats, usage)
		} else {
			log.Printf("[digest] usage stats unavailable: %v", err)
		}
	}

	if err := d.notifier.Send(n); err != nil {
		return fmt.Errorf("post digest: %w", err)
	}
	log.Printf("[digest] posted: %d open, %d resolved today", ticketStats.TotalOpen, ticketStats.ResolvedToday)
	return nil
}

func summaryText(t *quickbase.Stats, u *store.UsageStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Open: %d | Resolved today: %d", t.TotalOpen, t.ResolvedToday)
	if t.ByPriority["Critical"] > 0 || t.ByPriority["High"] > 0 {
		fmt.Fprintf(&b, " | Critical: %d, High: %d", t.ByPriority["Critical"], t.ByPriority["High"])
	}
	if u != nil {
		fmt.Fprintf(&b, " | Questions (24h): %d, helpful: %d", u.Questions, u.HelpfulMarks)
	}
	return b.String()
}
