// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENTS
// =============================================================================

// Sun - brand color, the guide's label and headings
var Sun = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FDBA74"}

// Sky - the player's label and links
var Sky = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#7DD3FC"}

// Leaf - correct answers, high scores
var Leaf = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"}

// Berry - errors and the fallback reply
var Berry = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FDA4AF"}

// Dusk - reflections and the selected action
var Dusk = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#C4B5FD"}

// =============================================================================
// SURFACES & TEXT
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFBF5", Dark: "#1C1917"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F0E8", Dark: "#151210"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E7E0D6", Dark: "#3A3330"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#292524", Dark: "#F5F5F4"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#57534E", Dark: "#D6D3D1"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#A8A29E", Dark: "#78716C"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1C1917"}

// =============================================================================
// BUBBLES
// =============================================================================

var PlayerBubbleBorder = lipgloss.AdaptiveColor{Light: "#0EA5E9", Dark: "#0284C7"}
var GuideBubbleBorder = lipgloss.AdaptiveColor{Light: "#FB923C", Dark: "#EA580C"}
var CardBorder = lipgloss.AdaptiveColor{Light: "#A78BFA", Dark: "#7C3AED"}

// ScoreColor picks the accent for a quiz percentage, using the same tiers
// as the completion emoji.
func ScoreColor(percentage float64) lipgloss.AdaptiveColor {
	switch {
	case percentage >= 80:
		return Leaf
	case percentage >= 60:
		return Sun
	default:
		return Berry
	}
}
