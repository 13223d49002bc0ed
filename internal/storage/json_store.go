// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/JDLewis4313/genius-edtech/internal/transcript"
	"github.com/JDLewis4313/genius-edtech/internal/util"
)

// JSONStore keeps one JSON file per transcript.
type JSONStore struct {
	// BaseDir holds the <id>.json files.
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited).
	MaxTranscripts int
}

// NewJSONStore creates a store rooted at dir.
func NewJSONStore(dir string, maxTranscripts int) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JSONStore{BaseDir: dir, MaxTranscripts: maxTranscripts}, nil
}

// Save persists a record.
func (s *JSONStore) Save(rec transcript.Record) error {
	if err := validID(rec.ID); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(s.filePath(rec.ID), data, 0o644); err != nil {
		return err
	}

	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return nil
}

// enforceLimit removes the oldest transcripts past the cap.
func (s *JSONStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	for _, m := range metas[s.MaxTranscripts:] {
		_ = s.Delete(m.ID)
	}
}

// Load retrieves a record by ID.
func (s *JSONStore) Load(id string) (transcript.Record, error) {
	if err := validID(id); err != nil {
		return transcript.Record{}, err
	}

	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return transcript.Record{}, ErrTranscriptNotFound
		}
		return transcript.Record{}, err
	}

	var rec transcript.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return transcript.Record{}, err
	}
	return rec, nil
}

// List returns all transcripts, most recent first. Corrupt files are
// skipped.
func (s *JSONStore) List() ([]transcript.Meta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []transcript.Meta{}, nil
		}
		return nil, err
	}

	metas := []transcript.Meta{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, rec.Meta())
	}

	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a transcript by ID.
func (s *JSONStore) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

// Close implements Store.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}
