package notify

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hook scripts are POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "hook.sh")
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestHookReceivesPayloadOnStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "payload.json")
	script := writeScript(t, "#!/bin/sh\ncat > "+out+"\n")

	h := NewHookRunner(script)
	err := h.Execute(HookPayload{
		TicketNumber: "IT-1",
		Subject:      "Vpn Broken",
		Status:       "New",
		Priority:     "High",
		UserEmail:    "pat@example.com",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read captured payload: %v", err)
	}
	for _, want := range []string{`"ticketNumber":"IT-1"`, `"status":"New"`, `"userEmail":"pat@example.com"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("payload missing %s: %s", want, data)
		}
	}
}

func TestHookFailureSurfacesOutput(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho broken hook >&2\nexit 3\n")

	h := NewHookRunner(script)
	err := h.Execute(HookPayload{TicketNumber: "IT-1"})
	if err == nil {
		t.Fatal("expected error from failing hook")
	}
	if !strings.Contains(err.Error(), "broken hook") {
		t.Errorf("err = %v, want script output included", err)
	}
}

func TestHookMissingScript(t *testing.T) {
	h := NewHookRunner(filepath.Join(t.TempDir(), "missing.sh"))
	if err := h.Execute(HookPayload{}); err == nil {
		t.Fatal("expected error for missing script")
	}
}
