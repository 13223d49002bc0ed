// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JDLewis4313/genius-edtech/internal/transcript"
	"github.com/JDLewis4313/genius-edtech/internal/util"
)

// Backend names.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store persists transcript records.
type Store interface {
	// Save inserts or replaces a record.
	Save(rec transcript.Record) error
	// Load returns the record with the given ID.
	Load(id string) (transcript.Record, error)
	// List returns all records, most recently updated first.
	List() ([]transcript.Meta, error)
	// Delete removes a record.
	Delete(id string) error
	// Close releases resources.
	Close() error
}

// Open opens the store for backend in dir. maxTranscripts of zero keeps
// everything.
func Open(backend, dir string, maxTranscripts int) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(dir, maxTranscripts)
	case BackendSQLite:
		return NewSQLiteStore(dir, maxTranscripts)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Resolve finds a record by reference: a full ID, a unique ID prefix, or a
// 1-based position in List order.
func Resolve(s Store, ref string) (transcript.Record, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return transcript.Record{}, ErrTranscriptNotFound
	}

	if _, err := uuid.Parse(ref); err == nil {
		return s.Load(ref)
	}

	metas, err := s.List()
	if err != nil {
		return transcript.Record{}, err
	}

	// Short numbers are list positions. Anything else, including an
	// all-digit short ID, is matched as a prefix.
	if n, err := strconv.Atoi(ref); err == nil && len(ref) < shortIDLen && n >= 1 && n <= len(metas) {
		return s.Load(metas[n-1].ID)
	}

	var match string
	for _, m := range metas {
		if strings.HasPrefix(m.ID, ref) {
			if match != "" {
				return transcript.Record{}, &TranscriptError{Message: fmt.Sprintf("ambiguous transcript reference %q", ref)}
			}
			match = m.ID
		}
	}
	if match == "" {
		return transcript.Record{}, ErrTranscriptNotFound
	}
	return s.Load(match)
}

// validID guards file names and queries against anything but a UUID.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &TranscriptError{Message: fmt.Sprintf("invalid transcript id %q", id)}
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrTranscriptNotFound is returned when a transcript doesn't exist.
var ErrTranscriptNotFound = &TranscriptError{Message: "transcript not found"}

// TranscriptError represents an archive error. It compares by message under
// errors.Is.
type TranscriptError struct {
	Message string
}

// Error implements the error interface.
func (e *TranscriptError) Error() string {
	return e.Message
}

// Is implements errors.Is support.
func (e *TranscriptError) Is(target error) bool {
	t, ok := target.(*TranscriptError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// shortIDLen is the length of ShortID's output.
const shortIDLen = 8

// ShortID returns the first eight characters of an ID for display.
func ShortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList formats transcript metadata as a table.
func FormatList(metas []transcript.Meta) string {
	if len(metas) == 0 {
		return "No saved transcripts.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-4s %-10s %-17s %7s  %s\n", "#", "ID", "UPDATED", "ENTRIES", "TITLE")
	for i, m := range metas {
		fmt.Fprintf(&sb, "%-4d %-10s %-17s %7d  %s\n",
			i+1,
			ShortID(m.ID),
			m.UpdatedAt.Local().Format("2006-01-02 15:04"),
			m.EntryCount,
			util.TruncateWidth(m.Title, 50),
		)
	}
	return sb.String()
}
