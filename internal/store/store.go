// Package store persists conversation references and interaction history
// in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"deskbot/internal/teams"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS conversation_refs (
		user_email TEXT PRIMARY KEY,
		ref_json   TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		id            TEXT PRIMARY KEY,
		user_email    TEXT NOT NULL,
		question      TEXT NOT NULL,
		intent        TEXT NOT NULL,
		confidence    REAL NOT NULL,
		category      TEXT NOT NULL,
		ticket_number TEXT,
		helpful       INTEGER,
		created_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_email, created_at)`,
}

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and runs migrations.
// ":memory:" opens an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRef upserts the conversation reference for a user. References are
// what proactive notifications are sent through later.
func (s *Store) SaveRef(ctx context.Context, userEmail string, ref teams.ConversationRef) error {
	if userEmail == "" {
		return errors.New("save ref: empty user email")
	}
	payload, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal ref: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_refs (user_email, ref_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_email) DO UPDATE SET
			ref_json = excluded.ref_json,
			updated_at = excluded.updated_at`,
		userEmail, string(payload), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save ref for %s: %w", userEmail, err)
	}
	return nil
}

// Ref loads the stored conversation reference for a user. Returns nil
// when the bot has never talked to them.
func (s *Store) Ref(ctx context.Context, userEmail string) (*teams.ConversationRef, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT ref_json FROM conversation_refs WHERE user_email = ?`, userEmail).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ref for %s: %w", userEmail, err)
	}

	var ref teams.ConversationRef
	if err := json.Unmarshal([]byte(payload), &ref); err != nil {
		return nil, fmt.Errorf("unmarshal ref for %s: %w", userEmail, err)
	}
	return &ref, nil
}

// Interaction is one question/answer round handled by the bot.
type Interaction struct {
	ID           string
	UserEmail    string
	Question     string
	Intent       string
	Confidence   float64
	Category     string
	TicketNumber string
	Helpful      *bool
	CreatedAt    time.Time
}

// RecordInteraction inserts an interaction row and returns its ID.
func (s *Store) RecordInteraction(ctx context.Context, in Interaction) (string, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (id, user_email, question, intent, confidence, category, ticket_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.UserEmail, in.Question, in.Intent, in.Confidence, in.Category,
		nullIfEmpty(in.TicketNumber), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("record interaction: %w", err)
	}
	return id, nil
}

// SetFeedback marks the user's most recent interaction matching the
// question as helpful or not.
func (s *Store) SetFeedback(ctx context.Context, userEmail, question string, helpful bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE interactions SET helpful = ?
		WHERE id = (
			SELECT id FROM interactions
			WHERE user_email = ? AND question = ?
			ORDER BY created_at DESC LIMIT 1
		)`,
		boolToInt(helpful), userEmail, question)
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	return nil
}

// UsageStats summarizes bot activity since a point in time.
type UsageStats struct {
	Questions      int
	HelpfulMarks   int
	UnhelpfulMarks int
	ByIntent       map[string]int
}

// Usage aggregates interaction counts since the given time.
func (s *Store) Usage(ctx context.Context, since time.Time) (*UsageStats, error) {
	cutoff := since.UTC().Format(time.RFC3339)

	stats := &UsageStats{ByIntent: make(map[string]int)}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN helpful = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN helpful = 0 THEN 1 ELSE 0 END), 0)
		FROM interactions WHERE created_at >= ?`, cutoff).
		Scan(&stats.Questions, &stats.HelpfulMarks, &stats.UnhelpfulMarks)
	if err != nil {
		return nil, fmt.Errorf("usage counts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT intent, COUNT(*) FROM interactions
		WHERE created_at >= ? GROUP BY intent`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("usage by intent: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var intent string
		var n int
		if err := rows.Scan(&intent, &n); err != nil {
			return nil, fmt.Errorf("scan intent row: %w", err)
		}
		stats.ByIntent[intent] = n
	}
	return stats, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
