// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"time"

	"github.com/google/uuid"

	"github.com/JDLewis4313/genius-edtech/internal/util"
)

const titleMaxRunes = 50

// Transcript is the ordered, append-only log of a chat session.
type Transcript struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
	entries   []*Entry
	index     map[string]int
	stats     *StatsBoard
}

// New creates an empty transcript with a fresh ID.
func New() *Transcript {
	now := time.Now()
	return &Transcript{
		id:        uuid.NewString(),
		createdAt: now,
		updatedAt: now,
		index:     make(map[string]int),
		stats:     NewStatsBoard(),
	}
}

// ID returns the transcript ID.
func (t *Transcript) ID() string { return t.id }

// CreatedAt returns when the transcript was started.
func (t *Transcript) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the time of the last append or stats update.
func (t *Transcript) UpdatedAt() time.Time {
	if at := t.stats.UpdatedAt(); at.After(t.updatedAt) {
		return at
	}
	return t.updatedAt
}

// Stats returns the stats board attached to this transcript.
func (t *Transcript) Stats() *StatsBoard { return t.stats }

// Append adds e to the end of the log and returns it. Entries without an ID
// or timestamp get one.
func (t *Transcript) Append(e *Entry) *Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	t.index[e.ID] = len(t.entries)
	t.entries = append(t.entries, e)
	t.updatedAt = e.Timestamp
	return e
}

// AddTurn appends a dialogue turn.
func (t *Transcript) AddTurn(sender Sender, text string) *Entry {
	return t.Append(NewTurn(sender, text))
}

// Len returns the number of entries.
func (t *Transcript) Len() int { return len(t.entries) }

// IsEmpty reports whether nothing has been logged.
func (t *Transcript) IsEmpty() bool { return len(t.entries) == 0 }

// Entries returns copies of all entries in order.
func (t *Transcript) Entries() []Entry {
	return t.Since(0)
}

// Since returns copies of the entries from position n onward. Front ends
// that print incrementally keep n as their cursor.
func (t *Transcript) Since(n int) []Entry {
	if n < 0 {
		n = 0
	}
	if n >= len(t.entries) {
		return nil
	}
	out := make([]Entry, 0, len(t.entries)-n)
	for _, e := range t.entries[n:] {
		out = append(out, e.clone())
	}
	return out
}

// Get returns a copy of the entry with the given ID.
func (t *Transcript) Get(id string) (Entry, bool) {
	i, ok := t.index[id]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i].clone(), true
}

// Last returns a copy of the most recent entry.
func (t *Transcript) Last() (Entry, bool) {
	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.entries[len(t.entries)-1].clone(), true
}

// Turns returns only the dialogue turns.
func (t *Transcript) Turns() []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.Kind == KindTurn {
			out = append(out, e.clone())
		}
	}
	return out
}

// ActionIDs returns the IDs of entries that carry actions, oldest first.
func (t *Transcript) ActionIDs() []string {
	var ids []string
	for _, e := range t.entries {
		if len(e.Actions) > 0 {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Title derives a title from the first player turn.
func (t *Transcript) Title() string {
	for _, e := range t.entries {
		if e.IsTurn(SenderPlayer) {
			return util.TruncateRunes(util.SingleLine(e.Text), titleMaxRunes)
		}
	}
	return "Untitled"
}
