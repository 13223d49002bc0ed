// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentor

import (
	"time"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
)

// ReplyMsg carries the outcome of one chat submission.
type ReplyMsg struct {
	Seq      uint64
	Message  string
	Response *mentari.ChatResponse
	Err      error
	Elapsed  time.Duration
}

// ReflectionMsg carries a reflection notice fetched in the background.
type ReflectionMsg struct {
	Appearance string
}
