package llm

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name  string
	out   string
	err   error
	calls int
}

func (s *stubProvider) Complete(ctx context.Context, req Request) (string, error) {
	s.calls++
	return s.out, s.err
}

func (s *stubProvider) Name() string { return s.name }

func TestFailoverPrimarySucceeds(t *testing.T) {
	primary := &stubProvider{name: "a", out: "answer"}
	secondary := &stubProvider{name: "b", out: "backup"}
	f := NewFailover(primary, secondary)

	out, err := f.Complete(context.Background(), Request{User: "q"})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if out != "answer" {
		t.Errorf("output = %q, want %q", out, "answer")
	}
	if secondary.calls != 0 {
		t.Errorf("secondary called %d times, want 0", secondary.calls)
	}
}

func TestFailoverFallsBack(t *testing.T) {
	primary := &stubProvider{name: "a", err: errors.New("gateway down")}
	secondary := &stubProvider{name: "b", out: "backup"}
	f := NewFailover(primary, secondary)

	out, err := f.Complete(context.Background(), Request{User: "q"})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if out != "backup" {
		t.Errorf("output = %q, want %q", out, "backup")
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls = (%d, %d), want (1, 1)", primary.calls, secondary.calls)
	}
}

func TestFailoverNoSecondary(t *testing.T) {
	wantErr := errors.New("gateway down")
	f := NewFailover(&stubProvider{name: "a", err: wantErr}, nil)

	_, err := f.Complete(context.Background(), Request{User: "q"})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
	if f.Name() != "a" {
		t.Errorf("Name() = %q, want %q", f.Name(), "a")
	}
}
