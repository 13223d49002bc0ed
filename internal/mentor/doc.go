// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mentor implements the chat session controller.
//
// The Controller owns three pieces of state: the transcript, the input
// control and the stats board. It turns player input into chat requests
// and chat replies into transcript entries.
//
// Network work is expressed as bubbletea commands. Submit appends the
// player's turn and clears the input right away, then returns a tea.Cmd
// that performs the request on another goroutine and yields a ReplyMsg.
// The front end feeds that message back through Update on its UI loop,
// which is the only place the transcript is mutated.
//
// A reply is applied in a fixed order: the guide's turn, then the card,
// then the redirect prompt, then the stats. A failed request appends a
// single fallback turn instead and is never retried.
//
// Replies are applied in arrival order by default, so two quick
// submissions may resolve out of order. Options.Ordered switches to
// submission order, buffering early replies until their predecessors land.
package mentor
