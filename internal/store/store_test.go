package store

import (
	"context"
	"testing"
	"time"

	"deskbot/internal/teams"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRef(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ref := teams.ConversationRef{
		User:         teams.ChannelAccount{ID: "user-1", Name: "pat@example.com"},
		Bot:          teams.ChannelAccount{ID: "bot-1"},
		Conversation: teams.ConversationAccount{ID: "conv-1"},
		ChannelID:    "msteams",
		ServiceURL:   "https://svc.example/",
	}
	if err := s.SaveRef(ctx, "pat@example.com", ref); err != nil {
		t.Fatalf("SaveRef: %v", err)
	}

	got, err := s.Ref(ctx, "pat@example.com")
	if err != nil {
		t.Fatalf("Ref: %v", err)
	}
	if got == nil {
		t.Fatal("Ref returned nil")
	}
	if got.Conversation.ID != "conv-1" || got.ServiceURL != "https://svc.example/" {
		t.Errorf("ref = %+v", got)
	}
}

func TestSaveRefUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ref := teams.ConversationRef{Conversation: teams.ConversationAccount{ID: "conv-1"}}
	if err := s.SaveRef(ctx, "pat@example.com", ref); err != nil {
		t.Fatalf("SaveRef: %v", err)
	}
	ref.Conversation.ID = "conv-2"
	if err := s.SaveRef(ctx, "pat@example.com", ref); err != nil {
		t.Fatalf("SaveRef update: %v", err)
	}

	got, err := s.Ref(ctx, "pat@example.com")
	if err != nil {
		t.Fatalf("Ref: %v", err)
	}
	if got.Conversation.ID != "conv-2" {
		t.Errorf("conversation = %q, want conv-2", got.Conversation.ID)
	}
}

func TestRefUnknownUser(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Ref(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("Ref: %v", err)
	}
	if got != nil {
		t.Errorf("ref = %+v, want nil", got)
	}
}

func TestSaveRefRejectsEmptyEmail(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveRef(context.Background(), "", teams.ConversationRef{}); err == nil {
		t.Fatal("expected error for empty email")
	}
}

func TestRecordInteractionAndFeedback(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RecordInteraction(ctx, Interaction{
		UserEmail:    "pat@example.com",
		Question:     "vpn is down",
		Intent:       "quick_fix",
		Confidence:   0.85,
		Category:     "VPN Access",
		TicketNumber: "IT-1",
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if id == "" {
		t.Fatal("empty interaction id")
	}

	if err := s.SetFeedback(ctx, "pat@example.com", "vpn is down", true); err != nil {
		t.Fatalf("SetFeedback: %v", err)
	}

	stats, err := s.Usage(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if stats.Questions != 1 {
		t.Errorf("Questions = %d, want 1", stats.Questions)
	}
	if stats.HelpfulMarks != 1 {
		t.Errorf("HelpfulMarks = %d, want 1", stats.HelpfulMarks)
	}
	if stats.ByIntent["quick_fix"] != 1 {
		t.Errorf("ByIntent = %+v", stats.ByIntent)
	}
}

func TestFeedbackTargetsMostRecentMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	if _, err := s.RecordInteraction(ctx, Interaction{UserEmail: "a@x", Question: "q", Intent: "quick_fix"}); err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return base.Add(time.Minute) }
	if _, err := s.RecordInteraction(ctx, Interaction{UserEmail: "a@x", Question: "q", Intent: "quick_fix"}); err != nil {
		t.Fatal(err)
	}

	if err := s.SetFeedback(ctx, "a@x", "q", false); err != nil {
		t.Fatalf("SetFeedback: %v", err)
	}

	stats, err := s.Usage(ctx, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if stats.UnhelpfulMarks != 1 {
		t.Errorf("UnhelpfulMarks = %d, want exactly 1", stats.UnhelpfulMarks)
	}
}

func TestUsageWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return old }
	if _, err := s.RecordInteraction(ctx, Interaction{UserEmail: "a@x", Question: "old", Intent: "quick_fix"}); err != nil {
		t.Fatal(err)
	}

	recent := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return recent }
	if _, err := s.RecordInteraction(ctx, Interaction{UserEmail: "a@x", Question: "new", Intent: "status_check"}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Usage(ctx, recent.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if stats.Questions != 1 {
		t.Errorf("Questions = %d, want 1 inside window", stats.Questions)
	}
	if stats.ByIntent["quick_fix"] != 0 {
		t.Errorf("old interaction leaked into window: %+v", stats.ByIntent)
	}
}
