// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles holds the lipgloss palette and styles of the mentari TUI.

Colors are lipgloss.AdaptiveColor values, so the same theme works on light
and dark terminals. NewTheme detects the terminal's profile with termenv;
NewThemeForProfile pins it, which tests and the notty mode use.

	theme := styles.NewTheme()
	fmt.Println(theme.GuideLabel.Render("Mentari"))
*/
package styles
