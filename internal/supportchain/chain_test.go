package supportchain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"deskbot/internal/llm"
)

// scriptedProvider routes completions by prompt content and carries no
// mutable state, so it is safe under concurrent Process calls.
type scriptedProvider struct {
	complete func(llm.Request) (string, error)
}

func (s *scriptedProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	return s.complete(req)
}

func (s *scriptedProvider) Name() string { return "scripted" }

func newTestChain(t *testing.T, provider *fakeProvider) *Chain {
	t.Helper()
	return New(NewRouter(provider), NewGenerator(provider, testKB(t)))
}

func TestProcessCommandFastPath(t *testing.T) {
	provider := &fakeProvider{}
	c := newTestChain(t, provider)

	for _, text := range []string{"/help", "/ticket", "  /status IT-1234"} {
		env := c.Process(context.Background(), text)
		if env.Type != EnvelopeCommand {
			t.Errorf("Process(%q) type = %s, want %s", text, env.Type, EnvelopeCommand)
		}
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for commands, want 0", provider.calls)
	}
}

func TestProcessStatusCheckShortCircuit(t *testing.T) {
	provider := &fakeProvider{}
	c := newTestChain(t, provider)

	env := c.Process(context.Background(), "What's the status of IT-0042?")
	if env.Type != EnvelopeStatusCheck {
		t.Fatalf("type = %s, want %s", env.Type, EnvelopeStatusCheck)
	}
	if env.TicketRef != "IT-0042" {
		t.Errorf("ticket ref = %q, want %q", env.TicketRef, "IT-0042")
	}
	// Ticket reference was detected locally; neither classification nor
	// generation may cost a model call.
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
}

func TestProcessSolutionPath(t *testing.T) {
	classification := `{"intent":"quick_fix","confidence":0.9,"reasoning":"vpn","category":"VPN Access","priority":"Medium"}`
	solution := "1. Restart the VPN client. 2. Flush DNS. 3. Re-enter credentials."
	provider := &fakeProvider{}
	provider.complete = func(req llm.Request) (string, error) {
		if provider.calls == 1 {
			return classification, nil
		}
		return solution, nil
	}
	c := newTestChain(t, provider)

	env := c.Process(context.Background(), "I can't connect to VPN")
	if env.Type != EnvelopeSolution {
		t.Fatalf("type = %s, want %s", env.Type, EnvelopeSolution)
	}
	if env.Solution != solution {
		t.Errorf("solution = %q, want model output", env.Solution)
	}
	if env.Confidence != kbConfidence {
		t.Errorf("confidence = %v, want %v (static KB matched)", env.Confidence, kbConfidence)
	}
	if env.Category != "VPN Access" {
		t.Errorf("category = %q, want %q", env.Category, "VPN Access")
	}
	if env.NeedsHuman {
		t.Error("needs_human = true, want false")
	}
	if !env.OfferEscalation {
		t.Error("offer_escalation = false, want true on solution paths")
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want exactly 2 (classify, generate)", provider.calls)
	}
}

func TestProcessEverythingDownStillAnswers(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream on fire")}
	c := newTestChain(t, provider)

	env := c.Process(context.Background(), "email is broken and I have a deadline")
	if env.Type != EnvelopeSolution {
		t.Fatalf("type = %s, want %s", env.Type, EnvelopeSolution)
	}
	if strings.TrimSpace(env.Solution) == "" {
		t.Fatal("solution is empty with all upstreams failing")
	}
	if !env.NeedsHuman {
		t.Error("needs_human = false, want true on the fallback path")
	}
	if env.Confidence != fallbackConfidence {
		t.Errorf("confidence = %v, want %v", env.Confidence, fallbackConfidence)
	}
	if len(env.Sources) != 1 || env.Sources[0] != sourceFallback {
		t.Errorf("sources = %v, want [%s]", env.Sources, sourceFallback)
	}
}

func TestProcessConcurrentRequestsIndependent(t *testing.T) {
	provider := &scriptedProvider{complete: func(req llm.Request) (string, error) {
		if strings.Contains(req.System, "classify IT support requests") {
			return `{"intent":"quick_fix","confidence":0.8,"priority":"Medium"}`, nil
		}
		return "Here is a generic but complete answer with steps.", nil
	}}
	c := New(NewRouter(provider), NewGenerator(provider, testKB(t)))

	done := make(chan Envelope, 8)
	for i := 0; i < 8; i++ {
		go func() {
			done <- c.Process(context.Background(), "printer is offline")
		}()
	}
	for i := 0; i < 8; i++ {
		env := <-done
		if env.Type != EnvelopeSolution {
			t.Errorf("type = %s, want %s", env.Type, EnvelopeSolution)
		}
		if strings.TrimSpace(env.Solution) == "" {
			t.Error("empty solution under concurrency")
		}
	}
}
