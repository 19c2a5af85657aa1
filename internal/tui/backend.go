package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"deskbot/internal/supportchain"
)

// Reply is one answer from a backend.
type Reply struct {
	Answer     string
	Confidence float64
	Category   string
	Sources    []string
}

// Backend answers console questions. Local mode runs the support chain
// in-process; remote mode talks to a running bot's debug chat endpoint.
type Backend interface {
	Ask(ctx context.Context, question string) (Reply, error)
	Label() string
	Close() error
}

// LocalBackend runs questions through an in-process chain.
type LocalBackend struct {
	chain *supportchain.Chain
}

// NewLocalBackend wraps a chain as a console backend.
func NewLocalBackend(chain *supportchain.Chain) *LocalBackend {
	return &LocalBackend{chain: chain}
}

func (b *LocalBackend) Ask(ctx context.Context, question string) (Reply, error) {
	env := b.chain.Process(ctx, question)
	switch env.Type {
	case supportchain.EnvelopeStatusCheck:
		return Reply{Answer: "status check for " + env.TicketRef}, nil
	case supportchain.EnvelopeCommand:
		return Reply{Answer: "commands are handled by the Teams endpoint"}, nil
	}
	return Reply{
		Answer:     env.Solution,
		Confidence: env.Confidence,
		Category:   env.Category,
		Sources:    env.Sources,
	}, nil
}

func (b *LocalBackend) Label() string { return "local" }

func (b *LocalBackend) Close() error { return nil }

// RemoteBackend talks to a running bot over the debug chat WebSocket.
type RemoteBackend struct {
	conn *websocket.Conn
	addr string
}

// remoteMessage mirrors the debug chat wire format in both directions.
type remoteMessage struct {
	Type       string   `json:"type"`
	Content    string   `json:"content,omitempty"`
	Answer     string   `json:"answer,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Category   string   `json:"category,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// NewRemoteBackend dials the bot's debug chat endpoint. addr is the
// host:port of a running server; token must match a configured debug token.
func NewRemoteBackend(addr, token string) (*RemoteBackend, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/debug/chat"}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connect to %s: %w (HTTP %d)", addr, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return &RemoteBackend{conn: conn, addr: addr}, nil
}

func (b *RemoteBackend) Ask(ctx context.Context, question string) (Reply, error) {
	msg := remoteMessage{Type: "user_message", Content: question}
	data, err := json.Marshal(msg)
	if err != nil {
		return Reply{}, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		b.conn.SetWriteDeadline(deadline)
		b.conn.SetReadDeadline(deadline)
	}
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return Reply{}, fmt.Errorf("send question: %w", err)
	}

	_, raw, err := b.conn.ReadMessage()
	if err != nil {
		return Reply{}, fmt.Errorf("read answer: %w", err)
	}
	var out remoteMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return Reply{}, fmt.Errorf("decode answer: %w", err)
	}
	if out.Type == "error" {
		return Reply{}, fmt.Errorf("server: %s", out.Message)
	}
	return Reply{
		Answer:     out.Answer,
		Confidence: out.Confidence,
		Category:   out.Category,
		Sources:    out.Sources,
	}, nil
}

func (b *RemoteBackend) Label() string { return b.addr }

func (b *RemoteBackend) Close() error { return b.conn.Close() }
