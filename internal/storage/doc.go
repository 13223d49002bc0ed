// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage archives finished chat transcripts.
//
// Two backends implement Store:
//
//   - JSONStore: one indented JSON file per transcript
//   - SQLiteStore: a single SQLite database (pure Go driver)
//
// Both key transcripts by their UUID, list most recent first and enforce
// an optional cap on the number kept.
package storage
