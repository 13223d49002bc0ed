// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/JDLewis4313/genius-edtech/internal/transcript"
	"github.com/JDLewis4313/genius-edtech/internal/util"
)

// SQLiteFile is the database file name inside the storage directory.
const SQLiteFile = "transcripts.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL,
    stats       TEXT
);

CREATE TABLE IF NOT EXISTS entries (
    transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
    seq           INTEGER NOT NULL,
    id            TEXT NOT NULL,
    kind          TEXT NOT NULL,
    timestamp     TEXT NOT NULL,
    sender        TEXT NOT NULL DEFAULT '',
    text          TEXT NOT NULL DEFAULT '',
    url           TEXT NOT NULL DEFAULT '',
    card          TEXT,
    actions       TEXT,
    PRIMARY KEY (transcript_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_transcripts_updated ON transcripts(updated_at);
`

// SQLiteStore keeps transcripts in a single SQLite database.
type SQLiteStore struct {
	db             *sql.DB
	path           string
	maxTranscripts int
}

// NewSQLiteStore opens (creating if needed) <dir>/transcripts.db.
func NewSQLiteStore(dir string, maxTranscripts int) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, SQLiteFile)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps PRAGMAs in effect and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, maxTranscripts: maxTranscripts}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Save inserts or replaces a record and its entries in one transaction.
func (s *SQLiteStore) Save(rec transcript.Record) (err error) {
	if err := validID(rec.ID); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	var stats sql.NullString
	if rec.Stats != nil {
		data, err := json.Marshal(rec.Stats)
		if err != nil {
			return err
		}
		stats = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM entries WHERE transcript_id = ?`, rec.ID); err != nil {
		return err
	}
	if _, err = tx.Exec(`
		INSERT INTO transcripts (id, title, created_at, updated_at, stats)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			stats = excluded.stats`,
		rec.ID, rec.Title, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt), stats,
	); err != nil {
		return err
	}

	for i, e := range rec.Entries {
		card, actions, encErr := encodeEntryExtras(e)
		if encErr != nil {
			err = encErr
			return err
		}
		if _, err = tx.Exec(`
			INSERT INTO entries (transcript_id, seq, id, kind, timestamp, sender, text, url, card, actions)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, i, e.ID, string(e.Kind), formatTime(e.Timestamp), string(e.Sender), e.Text, e.URL, card, actions,
		); err != nil {
			return err
		}
	}

	if s.maxTranscripts > 0 {
		if _, err = tx.Exec(`
			DELETE FROM transcripts WHERE id NOT IN (
				SELECT id FROM transcripts ORDER BY updated_at DESC LIMIT ?
			)`, s.maxTranscripts); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load retrieves a record by ID.
func (s *SQLiteStore) Load(id string) (transcript.Record, error) {
	if err := validID(id); err != nil {
		return transcript.Record{}, err
	}

	var (
		rec                  transcript.Record
		createdAt, updatedAt string
		stats                sql.NullString
	)
	row := s.db.QueryRow(`SELECT id, title, created_at, updated_at, stats FROM transcripts WHERE id = ?`, id)
	if err := row.Scan(&rec.ID, &rec.Title, &createdAt, &updatedAt, &stats); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transcript.Record{}, ErrTranscriptNotFound
		}
		return transcript.Record{}, err
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	if stats.Valid {
		var st transcript.Stats
		if err := json.Unmarshal([]byte(stats.String), &st); err != nil {
			return transcript.Record{}, fmt.Errorf("corrupt stats for %s: %w", id, err)
		}
		rec.Stats = &st
	}

	rows, err := s.db.Query(`
		SELECT id, kind, timestamp, sender, text, url, card, actions
		FROM entries WHERE transcript_id = ? ORDER BY seq`, id)
	if err != nil {
		return transcript.Record{}, err
	}
	defer rows.Close()

	rec.Entries = []transcript.Entry{}
	for rows.Next() {
		var (
			e             transcript.Entry
			kind, sender  string
			ts            string
			card, actions sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &ts, &sender, &e.Text, &e.URL, &card, &actions); err != nil {
			return transcript.Record{}, err
		}
		e.Kind = transcript.Kind(kind)
		e.Sender = transcript.Sender(sender)
		e.Timestamp = parseTime(ts)
		if err := decodeEntryExtras(&e, card, actions); err != nil {
			return transcript.Record{}, fmt.Errorf("corrupt entry %s: %w", e.ID, err)
		}
		rec.Entries = append(rec.Entries, e)
	}
	return rec, rows.Err()
}

// List returns all transcripts, most recent first.
func (s *SQLiteStore) List() ([]transcript.Meta, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.title, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM entries e WHERE e.transcript_id = t.id),
			COALESCE((SELECT e.text FROM entries e
				WHERE e.transcript_id = t.id AND e.kind = 'turn'
				ORDER BY e.seq DESC LIMIT 1), '')
		FROM transcripts t
		ORDER BY t.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metas := []transcript.Meta{}
	for rows.Next() {
		var (
			m                    transcript.Meta
			createdAt, updatedAt string
			preview              string
		)
		if err := rows.Scan(&m.ID, &m.Title, &createdAt, &updatedAt, &m.EntryCount, &preview); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		m.UpdatedAt = parseTime(updatedAt)
		m.Preview = previewOf(preview)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// Delete removes a transcript and its entries.
func (s *SQLiteStore) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	res, err := s.db.Exec(`DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTranscriptNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

// timeLayout sorts lexically in UTC, which List's ORDER BY relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func previewOf(text string) string {
	return util.TruncateRunes(util.SingleLine(text), 80)
}

func encodeEntryExtras(e transcript.Entry) (card, actions sql.NullString, err error) {
	if e.Card != nil {
		data, err := json.Marshal(e.Card)
		if err != nil {
			return card, actions, err
		}
		card = sql.NullString{String: string(data), Valid: true}
	}
	if len(e.Actions) > 0 {
		data, err := json.Marshal(e.Actions)
		if err != nil {
			return card, actions, err
		}
		actions = sql.NullString{String: string(data), Valid: true}
	}
	return card, actions, nil
}

func decodeEntryExtras(e *transcript.Entry, card, actions sql.NullString) error {
	if card.Valid {
		var view transcript.CardView
		if err := json.Unmarshal([]byte(card.String), &view); err != nil {
			return err
		}
		e.Card = &view
	}
	if actions.Valid {
		if err := json.Unmarshal([]byte(actions.String), &e.Actions); err != nil {
			return err
		}
	}
	return nil
}
