// Package eventlog is the controller's structured event sink: events
// are recorded as tag/payload rows a test (or the audit CLI) can query,
// instead of parsing log strings. The
// backing store is an in-memory SQLite table only -- the controller
// persists no state across restarts.
package eventlog

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Event is one recorded tag/payload pair.
type Event struct {
	Tick    int64
	Tag     string
	Payload string
	AtMs    uint64
}

// Log is a fixed-capacity ring of events backed by an in-memory SQLite
// table. Capacity is enforced by deleting the oldest row past the
// configured limit, rather than growing unbounded across a long-running
// process.
type Log struct {
	db       *sql.DB
	capacity int
	tick     int64
}

// Open creates the in-memory event table. capacity bounds how many rows
// are retained; 0 disables trimming.
func Open(capacity int) (*Log, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory event log: %w", err)
	}
	schema := `CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		tag TEXT NOT NULL,
		payload TEXT NOT NULL,
		at_ms INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events table: %w", err)
	}
	return &Log{db: db, capacity: capacity}, nil
}

func (l *Log) Close() error { return l.db.Close() }

// Tick advances the recorded tick counter; the supervisory loop calls
// this once per iteration before recording that tick's events.
func (l *Log) Tick() { l.tick++ }

// Record appends one event. payload is marshaled to JSON; a marshal
// failure is logged and the event is dropped rather than blocking the
// control loop.
func (l *Log) Record(tag string, atMs uint64, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("tag", tag).Msg("failed to marshal event payload")
		return
	}
	if _, err := l.db.Exec(`INSERT INTO events (tick, tag, payload, at_ms) VALUES (?, ?, ?, ?)`,
		l.tick, tag, string(body), atMs); err != nil {
		log.Error().Err(err).Str("tag", tag).Msg("failed to record event")
		return
	}
	l.trim()
}

func (l *Log) trim() {
	if l.capacity <= 0 {
		return
	}
	if _, err := l.db.Exec(
		`DELETE FROM events WHERE id IN (
			SELECT id FROM events ORDER BY id DESC LIMIT -1 OFFSET ?
		)`, l.capacity); err != nil {
		log.Error().Err(err).Msg("failed to trim event log")
	}
}

// Query returns the most recent events matching tag (or all tags, if
// tag is empty), newest first, up to limit rows (0 means unbounded).
func (l *Log) Query(tag string, limit int) ([]Event, error) {
	q := `SELECT tick, tag, payload, at_ms FROM events`
	args := []any{}
	if tag != "" {
		q += ` WHERE tag = ?`
		args = append(args, tag)
	}
	q += ` ORDER BY id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Tick, &e.Tag, &e.Payload, &e.AtMs); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
