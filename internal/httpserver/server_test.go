package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	deps := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	deps.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" || health.Version != "test" {
		t.Errorf("health = %+v", health)
	}
	for _, component := range []string{"chain", "teams", "quickbase", "store"} {
		if health.Components[component] != "configured" {
			t.Errorf("components[%q] = %q, want configured", component, health.Components[component])
		}
	}
}

func TestHealthRejectsPost(t *testing.T) {
	deps := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	deps.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestDebugChatRequiresAuth(t *testing.T) {
	deps := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/debug/chat", nil)
	rec := httptest.NewRecorder()
	deps.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/debug/chat", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	deps.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestDebugChatTokenQueryParamAccepted(t *testing.T) {
	deps := newTestServer(t)

	// A valid token passes auth; the request then fails the WebSocket
	// handshake, which is the upgrader talking, not the middleware.
	req := httptest.NewRequest(http.MethodGet, "/debug/chat?token=debug-token", nil)
	rec := httptest.NewRecorder()
	deps.server.Handler().ServeHTTP(rec, req)
	if rec.Code == http.StatusUnauthorized || rec.Code == http.StatusForbidden {
		t.Errorf("status = %d, want auth to pass", rec.Code)
	}
}

func TestDebugChatDisabledWithoutTokens(t *testing.T) {
	deps := newTestServer(t)
	deps.server.debugTokens = nil

	req := httptest.NewRequest(http.MethodGet, "/debug/chat", nil)
	rec := httptest.NewRecorder()
	deps.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
