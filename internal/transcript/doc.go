// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript contains the display model of a Mentari chat session:
// the append-only log of entries a front end renders, and the stats board.
//
// An Entry is one of:
//
//   - a turn: a line of dialogue from the player or the guide
//   - a card: an interactive quiz artifact with its own actions
//   - a redirect: a prompt pointing at a quiz page
//   - a reflection: a short notice about the guide's demeanour
//
// Entries are never mutated or removed once appended. Actions live on the
// card entry that owns them, so a front end activates an action by entry ID
// and index rather than through any global handler table.
//
// A Transcript is owned by one goroutine (the UI loop); it is not safe for
// concurrent mutation.
package transcript
