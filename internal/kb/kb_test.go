package kb

import (
	"strings"
	"testing"
)

func TestDefaultLoads(t *testing.T) {
	k, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if k.Len() != 8 {
		t.Errorf("entry count = %d, want 8", k.Len())
	}
}

func TestLookup(t *testing.T) {
	k, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	tests := []struct {
		name         string
		question     string
		wantKey      string
		wantCategory string
		wantMatch    bool
	}{
		{
			name:         "vpn issue",
			question:     "I can't connect to VPN",
			wantKey:      "vpn",
			wantCategory: "VPN Access",
			wantMatch:    true,
		},
		{
			name:         "password case insensitive",
			question:     "My PASSWORD expired and I am Locked Out",
			wantKey:      "password_reset",
			wantCategory: "Password Reset",
			wantMatch:    true,
		},
		{
			name:         "printer offline",
			question:     "the printer in room 4 shows offline",
			wantKey:      "printer",
			wantCategory: "Printer Problems",
			wantMatch:    true,
		},
		{
			name:      "no match",
			question:  "what is the cafeteria menu today",
			wantMatch: false,
		},
		{
			name:         "slow machine",
			question:     "laptop keeps freezing during demos",
			wantKey:      "slow",
			wantCategory: "Hardware Issue",
			wantMatch:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := k.Lookup(tt.question)
			if ok != tt.wantMatch {
				t.Fatalf("Lookup(%q) matched = %v, want %v", tt.question, ok, tt.wantMatch)
			}
			if !tt.wantMatch {
				return
			}
			if e.Key != tt.wantKey {
				t.Errorf("entry key = %q, want %q", e.Key, tt.wantKey)
			}
			if e.Category != tt.wantCategory {
				t.Errorf("entry category = %q, want %q", e.Category, tt.wantCategory)
			}
			if strings.TrimSpace(e.Solution) == "" {
				t.Error("matched entry has empty solution")
			}
		})
	}
}

// Overlapping keywords must resolve to the earlier entry every time.
func TestLookupTieBreakIsDeclarationOrder(t *testing.T) {
	k, err := Parse([]byte(`
- key: first
  category: A
  keywords: [install]
  solution: first answer
- key: second
  category: B
  keywords: [install, setup]
  solution: second answer
`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	for i := 0; i < 20; i++ {
		e, ok := k.Lookup("please install the setup tool")
		if !ok {
			t.Fatal("expected a match")
		}
		if e.Key != "first" {
			t.Fatalf("iteration %d: matched %q, want %q", i, e.Key, "first")
		}
	}
}

func TestLookupDeterministic(t *testing.T) {
	k, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	const q = "outlook won't send email"
	first, ok := k.Lookup(q)
	if !ok {
		t.Fatal("expected a match")
	}
	for i := 0; i < 50; i++ {
		e, ok := k.Lookup(q)
		if !ok || e.Key != first.Key {
			t.Fatalf("iteration %d: got %q, want stable %q", i, e.Key, first.Key)
		}
	}
}

func TestParseRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing key", "- category: X\n  keywords: [a]\n  solution: s\n"},
		{"no keywords", "- key: x\n  category: X\n  keywords: []\n  solution: s\n"},
		{"empty solution", "- key: x\n  category: X\n  keywords: [a]\n  solution: \"  \"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}
