// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"fmt"
	"time"
)

// Stats is one snapshot of the server's conversation stats, already in
// display form.
type Stats struct {
	TotalInteractions string `json:"total_interactions"`
	GrowthIndicators  string `json:"growth_indicators"`
	SupportNeeded     string `json:"support_needed"`
}

// String formats the stats the way the stats region shows them.
func (s Stats) String() string {
	return fmt.Sprintf("Interactions: %s, Growth: %s, Support: %s",
		s.TotalInteractions, s.GrowthIndicators, s.SupportNeeded)
}

// StatsBoard holds the most recently displayed stats. Each update replaces
// the previous snapshot wholesale.
type StatsBoard struct {
	current   *Stats
	updatedAt time.Time
	updates   int
}

// NewStatsBoard creates an empty board.
func NewStatsBoard() *StatsBoard {
	return &StatsBoard{}
}

// Replace shows s in place of whatever was displayed.
func (b *StatsBoard) Replace(s Stats) {
	b.current = &s
	b.updatedAt = time.Now()
	b.updates++
}

// Current returns the displayed stats, if any have arrived.
func (b *StatsBoard) Current() (Stats, bool) {
	if b.current == nil {
		return Stats{}, false
	}
	return *b.current, true
}

// Text returns the display line, or "" before the first update.
func (b *StatsBoard) Text() string {
	if b.current == nil {
		return ""
	}
	return b.current.String()
}

// Updates returns how many times the board was replaced.
func (b *StatsBoard) Updates() int { return b.updates }

// UpdatedAt returns the time of the last replacement.
func (b *StatsBoard) UpdatedAt() time.Time { return b.updatedAt }
