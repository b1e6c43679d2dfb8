// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("event store is closed")
	// ErrEmptyQuestion is returned when recording an event without a question.
	ErrEmptyQuestion = errors.New("event question is empty")
)

// =============================================================================
// EVENT STORE
// =============================================================================

// EventStore persists dashboard events in SQLite.
type EventStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the event database at path. Use ":memory:"
// for a throwaway store.
func Open(path string) (*EventStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases from being split across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &EventStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database location.
func (s *EventStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *EventStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record appends an event.
func (s *EventStore) Record(ctx context.Context, e dashboard.Event) error {
	if s.db == nil {
		return ErrClosed
	}
	if strings.TrimSpace(e.Question) == "" {
		return ErrEmptyQuestion
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (created_at, time, date, question, agents, resources) VALUES (?, ?, ?, ?, ?, ?)`,
		s.now().UnixNano(), e.Time, e.Date, e.Question, joinAgents(e.Agents), e.Resources)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// List returns up to limit of the most recent events, oldest first. A limit
// of zero or less returns every event.
func (s *EventStore) List(ctx context.Context, limit int) ([]dashboard.Event, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT time, date, question, agents, resources FROM (
			SELECT id, time, date, question, agents, resources
			FROM events ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []dashboard.Event
	for rows.Next() {
		var e dashboard.Event
		var agents string
		if err := rows.Scan(&e.Time, &e.Date, &e.Question, &agents, &e.Resources); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Agents = splitAgents(agents)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

// Count returns the number of recorded events.
func (s *EventStore) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// SeedIfEmpty records events only when the history is empty, in a single
// transaction. It reports whether anything was written.
func (s *EventStore) SeedIfEmpty(ctx context.Context, events []dashboard.Event) (bool, error) {
	if s.db == nil {
		return false, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count events: %w", err)
	}
	if n > 0 || len(events) == 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (created_at, time, date, question, agents, resources) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare seed: %w", err)
	}
	defer stmt.Close()

	base := s.now().UnixNano()
	for i, e := range events {
		if _, err := stmt.ExecContext(ctx, base+int64(i), e.Time, e.Date, e.Question, joinAgents(e.Agents), e.Resources); err != nil {
			return false, fmt.Errorf("failed to seed event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}
	return true, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func joinAgents(agents []dashboard.AgentType) string {
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.String()
	}
	return strings.Join(names, ",")
}

// splitAgents skips names it does not recognise.
func splitAgents(s string) []dashboard.AgentType {
	if s == "" {
		return nil
	}
	var agents []dashboard.AgentType
	for _, name := range strings.Split(s, ",") {
		if a, err := dashboard.ParseAgentType(name); err == nil {
			agents = append(agents, a)
		}
	}
	return agents
}
