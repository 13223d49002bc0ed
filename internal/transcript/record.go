// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"time"

	"github.com/JDLewis4313/genius-edtech/internal/util"
)

// Record is the serializable form of a transcript, used by the archive and
// exporters.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Entry   `json:"entries"`
	Stats     *Stats    `json:"stats,omitempty"`
}

// Meta is the lightweight listing form of a record.
type Meta struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	EntryCount int       `json:"entry_count"`
	Preview    string    `json:"preview"`
}

// Record snapshots the transcript.
func (t *Transcript) Record() Record {
	r := Record{
		ID:        t.id,
		Title:     t.Title(),
		CreatedAt: t.createdAt,
		UpdatedAt: t.UpdatedAt(),
		Entries:   t.Entries(),
	}
	if r.Entries == nil {
		r.Entries = []Entry{}
	}
	if s, ok := t.stats.Current(); ok {
		r.Stats = &s
	}
	return r
}

// FromRecord rebuilds a transcript from an archived record.
func FromRecord(r Record) *Transcript {
	t := New()
	if r.ID != "" {
		t.id = r.ID
	}
	if !r.CreatedAt.IsZero() {
		t.createdAt = r.CreatedAt
	}
	for i := range r.Entries {
		e := r.Entries[i].clone()
		t.Append(&e)
	}
	if !r.UpdatedAt.IsZero() {
		t.updatedAt = r.UpdatedAt
	}
	if r.Stats != nil {
		t.stats.Replace(*r.Stats)
		// Restored stats are as old as the record.
		t.stats.updatedAt = t.updatedAt
	}
	return t
}

// Meta returns the listing form of the record.
func (r Record) Meta() Meta {
	m := Meta{
		ID:         r.ID,
		Title:      r.Title,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		EntryCount: len(r.Entries),
	}
	for i := len(r.Entries) - 1; i >= 0; i-- {
		if r.Entries[i].Kind == KindTurn {
			m.Preview = util.TruncateRunes(util.SingleLine(r.Entries[i].Text), 80)
			break
		}
	}
	return m
}
