// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records session lifecycle events in a local SQLite trail.
//
// Each event carries an HMAC-SHA256 hash chained to the previous event, so
// tampering with or removing a recorded event is detectable by Verify. An
// empty key disables chaining while keeping the trail itself.
package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event kinds recorded by the session coordinator.
const (
	EventLogin           = "login"
	EventLogout          = "logout"
	EventInactivityWarn  = "inactivity_warning"
	EventInactivityEnd   = "inactivity_logout"
	EventMaintenanceOn   = "maintenance_enabled"
	EventMaintenanceOff  = "maintenance_disabled"
	EventAccountDisabled = "account_disabled"
	EventSessionExpired  = "session_expired"
)

// Event is one recorded trail entry.
type Event struct {
	ID        int64
	Timestamp time.Time
	Kind      string
	Username  string
	Detail    string
	Hash      string
	PrevHash  string
}

// Trail is an append-only SQLite event log.
type Trail struct {
	db  *sql.DB
	key []byte
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	username   TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	hash       TEXT NOT NULL DEFAULT '',
	prev_hash  TEXT NOT NULL DEFAULT ''
);
`

// Open opens (creating if needed) the trail database at path. key is the
// HMAC chaining key; pass nil to disable chaining.
func Open(path string, key []byte) (*Trail, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return &Trail{db: db, key: key}, nil
}

// Close releases the database handle.
func (t *Trail) Close() error {
	return t.db.Close()
}

// Record appends an event to the trail.
func (t *Trail) Record(kind, username, detail string) error {
	now := time.Now().UTC()

	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer tx.Rollback()

	var prev string
	err = tx.QueryRow(`SELECT hash FROM events ORDER BY id DESC LIMIT 1`).Scan(&prev)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read audit chain head: %w", err)
	}

	hash := t.chainHash(now, kind, username, detail, prev)
	_, err = tx.Exec(
		`INSERT INTO events (timestamp, kind, username, detail, hash, prev_hash) VALUES (?, ?, ?, ?, ?, ?)`,
		now.Format(time.RFC3339Nano), kind, username, detail, hash, prev,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return tx.Commit()
}

// List returns the most recent events, newest first. limit <= 0 returns all.
func (t *Trail) List(limit int) ([]Event, error) {
	query := `SELECT id, timestamp, kind, username, detail, hash, prev_hash FROM events ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := t.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.Username, &e.Detail, &e.Hash, &e.PrevHash); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Verify walks the full chain oldest-first and reports the first broken
// link, or nil when the chain is intact. With chaining disabled it only
// checks that the trail is readable.
func (t *Trail) Verify() error {
	rows, err := t.db.Query(`SELECT id, timestamp, kind, username, detail, hash, prev_hash FROM events ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("failed to read audit trail: %w", err)
	}
	defer rows.Close()

	prev := ""
	for rows.Next() {
		var e Event
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.Username, &e.Detail, &e.Hash, &e.PrevHash); err != nil {
			return fmt.Errorf("failed to scan audit event: %w", err)
		}
		if len(t.key) == 0 {
			continue
		}
		if e.PrevHash != prev {
			return fmt.Errorf("audit chain broken at event %d: previous hash mismatch", e.ID)
		}
		when, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return fmt.Errorf("audit chain broken at event %d: bad timestamp", e.ID)
		}
		want := t.chainHash(when, e.Kind, e.Username, e.Detail, e.PrevHash)
		if !hmac.Equal([]byte(want), []byte(e.Hash)) {
			return fmt.Errorf("audit chain broken at event %d: hash mismatch", e.ID)
		}
		prev = e.Hash
	}
	return rows.Err()
}

// chainHash computes the HMAC over the event fields plus the previous hash.
func (t *Trail) chainHash(when time.Time, kind, username, detail, prev string) string {
	if len(t.key) == 0 {
		return ""
	}
	mac := hmac.New(sha256.New, t.key)
	fmt.Fprintf(mac, "%s|%s|%s|%s|%s", when.Format(time.RFC3339Nano), kind, username, detail, prev)
	return hex.EncodeToString(mac.Sum(nil))
}
