// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestNewThemeForProfile(t *testing.T) {
	theme := NewThemeForProfile(termenv.Ascii, true)

	assert.True(t, theme.IsDark)
	assert.Equal(t, termenv.Ascii, theme.ColorProfile)

	styles := map[string]lipgloss.Style{
		"PlayerBubble": theme.PlayerBubble,
		"GuideBubble":  theme.GuideBubble,
		"Card":         theme.Card,
		"StatsBar":     theme.StatsBar,
		"Link":         theme.Link,
	}
	for name, s := range styles {
		assert.Contains(t, s.Render("hello"), "hello", name)
	}
}

func TestLayoutMode(t *testing.T) {
	theme := NewThemeForProfile(termenv.Ascii, true)

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
}

func TestBubbleWidth(t *testing.T) {
	theme := NewThemeForProfile(termenv.Ascii, true)

	theme.SetSize(10, 24)
	assert.Equal(t, 20, theme.BubbleWidth())

	theme.SetSize(80, 24)
	assert.Equal(t, 70, theme.BubbleWidth())

	theme.SetSize(120, 24)
	assert.Equal(t, 90, theme.BubbleWidth())
}

func TestScoreColor(t *testing.T) {
	assert.Equal(t, Leaf, ScoreColor(80))
	assert.Equal(t, Sun, ScoreColor(79.9))
	assert.Equal(t, Sun, ScoreColor(60))
	assert.Equal(t, Berry, ScoreColor(59.9))
}
