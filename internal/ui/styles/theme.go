// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the chat screen.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderHint  lipgloss.Style

	// Transcript
	PlayerLabel  lipgloss.Style
	GuideLabel   lipgloss.Style
	PlayerBubble lipgloss.Style
	GuideBubble  lipgloss.Style
	Timestamp    lipgloss.Style
	Reflection   lipgloss.Style
	Redirect     lipgloss.Style
	Link         lipgloss.Style

	// Cards
	Card               lipgloss.Style
	CardTitle          lipgloss.Style
	Action             lipgloss.Style
	ActionSelected     lipgloss.Style
	ActionUnselectable lipgloss.Style

	// Input
	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	Spinner          lipgloss.Style
	Thinking         lipgloss.Style

	// Stats bar
	StatsBar   lipgloss.Style
	StatsLabel lipgloss.Style
	StatsValue lipgloss.Style

	// Footer
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Error        lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	return NewThemeForProfile(termenv.ColorProfile(), termenv.HasDarkBackground())
}

// NewThemeForProfile creates a theme for an explicit color profile.
func NewThemeForProfile(profile termenv.Profile, dark bool) *Theme {
	t := &Theme{IsDark: dark, ColorProfile: profile}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sun)

	t.HeaderHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.PlayerLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)

	t.GuideLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sun)

	t.PlayerBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(PlayerBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.GuideBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(GuideBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Reflection = lipgloss.NewStyle().
		Foreground(Dusk).
		Italic(true).
		PaddingLeft(2)

	t.Redirect = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Sky).
		PaddingLeft(1)

	// Underline keeps links distinguishable without color.
	t.Link = lipgloss.NewStyle().
		Foreground(Sky).
		Underline(true)

	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(CardBorder).
		Padding(0, 1)

	t.CardTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Dusk)

	t.Action = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(Overlay).
		Padding(0, 1).
		MarginRight(1)

	t.ActionSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Dusk).
		Bold(true).
		Padding(0, 1).
		MarginRight(1)

	t.ActionUnselectable = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1).
		MarginRight(1)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Sun)

	t.Thinking = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StatsBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatsLabel = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatsValue = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Sun).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Error = lipgloss.NewStyle().
		Foreground(Berry).
		Bold(true)
}

// SetSize records the terminal size.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the wrap width for message bubbles at the current size.
func (t *Theme) BubbleWidth() int {
	w := t.Width - 8
	switch t.GetLayoutMode() {
	case LayoutWide:
		w = t.Width * 3 / 4
	case LayoutMedium:
		w = t.Width - 10
	}
	if w < 20 {
		w = 20
	}
	return w
}

// GetLayoutMode returns the layout mode for the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode is a responsive width class.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
