// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Glamour style names accepted by NewRenderer besides "auto".
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// Renderer renders markdown for the terminal. A nil or failed renderer
// passes content through unchanged.
type Renderer struct {
	tr    *glamour.TermRenderer
	width int
}

// NewRenderer builds a glamour renderer. A width of zero disables wrapping.
func NewRenderer(style string, width int) (*Renderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width), glamour.WithEmoji()}
	switch style {
	case "", StyleAuto:
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Renderer{tr: tr, width: width}, nil
}

// Width returns the wrap width the renderer was built with.
func (r *Renderer) Width() int {
	if r == nil {
		return 0
	}
	return r.width
}

// Render renders markdown, returning md itself if rendering fails.
func (r *Renderer) Render(md string) string {
	if r == nil || r.tr == nil {
		return md
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// RenderHTML converts an HTML fragment to markdown and renders it.
func (r *Renderer) RenderHTML(fragment string) string {
	return r.Render(ToMarkdown(fragment))
}
