// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/JDLewis4313/genius-edtech/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// Shared styles for line-mode output. They render plain text when colors
// are disabled.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Sun)

	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)

	PlayerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Sky)

	GuideStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Sun)

	CardStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Dusk)

	ReflectionStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(styles.Dusk)

	LinkStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(styles.Sky)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Leaf)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Berry)
)
