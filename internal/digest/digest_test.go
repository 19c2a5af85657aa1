package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"deskbot/internal/notify"
	"deskbot/internal/quickbase"
	"deskbot/internal/store"
)

type stubTickets struct {
	stats *quickbase.Stats
	err   error
}

func (s stubTickets) Stats(context.Context) (*quickbase.Stats, error) { return s.stats, s.err }

type stubUsage struct {
	usage *store.UsageStats
	err   error
}

func (s stubUsage) Usage(context.Context, time.Time) (*store.UsageStats, error) {
	return s.usage, s.err
}

type captureNotifier struct {
	got []notify.Notification
	err error
}

func (c *captureNotifier) Send(n notify.Notification) error {
	c.got = append(c.got, n)
	return c.err
}

func (c *captureNotifier) Name() string { return "capture" }

func TestRunPostsStats(t *testing.T) {
	sink := &captureNotifier{}
	d := New("0 8 * * *",
		stubTickets{stats: &quickbase.Stats{
			TotalOpen:     7,
			ResolvedToday: 2,
			ByPriority:    map[string]int{"Critical": 1, "High": 3},
		}},
		stubUsage{usage: &store.UsageStats{Questions: 9, HelpfulMarks: 4}},
		sink)

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.got) != 1 {
		t.Fatalf("got %d notifications, want 1", len(sink.got))
	}
	n := sink.got[0]
	if n.Card == nil {
		t.Error("digest missing stats card")
	}
	for _, want := range []string{"Open: 7", "Resolved today: 2", "Critical: 1, High: 3", "Questions (24h): 9"} {
		if !strings.Contains(n.Message, want) {
			t.Errorf("message missing %q: %s", want, n.Message)
		}
	}
}

func TestRunSurvivesUsageFailure(t *testing.T) {
	sink := &captureNotifier{}
	d := New("0 8 * * *",
		stubTickets{stats: &quickbase.Stats{TotalOpen: 1, ByPriority: map[string]int{}}},
		stubUsage{err: errors.New("db locked")},
		sink)

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.got) != 1 {
		t.Fatalf("digest not sent despite usage failure")
	}
	if strings.Contains(sink.got[0].Message, "Questions") {
		t.Error("message should omit usage numbers on failure")
	}
}

func TestRunFailsWhenStatsFail(t *testing.T) {
	d := New("0 8 * * *", stubTickets{err: errors.New("qb down")}, nil, &captureNotifier{})
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected error when ticket stats fail")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	d := New("not a cron spec",
		stubTickets{stats: &quickbase.Stats{ByPriority: map[string]int{}}}, nil, &captureNotifier{})
	if err := d.Start(); err == nil {
		d.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}
