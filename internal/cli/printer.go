// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/JDLewis4313/genius-edtech/internal/config"
	"github.com/JDLewis4313/genius-edtech/internal/markup"
	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

// printer writes transcript entries as lines of text, keeping a cursor so
// each entry is printed once.
type printer struct {
	w        io.Writer
	renderer *markup.Renderer

	// echoPlayer prints the player's own turns, which an interactive
	// terminal already shows as typed input.
	echoPlayer bool

	// pickHint tells the player how to choose a card action.
	pickHint bool

	cursor       int
	statsUpdates int
}

// newPrinter builds a printer. Guide HTML goes through glamour when
// markdown is on, otherwise it is reduced to plain text.
func (a *app) newPrinter(echoPlayer bool) *printer {
	p := &printer{w: a.out, echoPlayer: echoPlayer}
	p.configure(a.cfg.UI)
	return p
}

// configure picks the renderer for ui.
func (p *printer) configure(ui config.UIConfig) {
	p.renderer = nil
	if !ui.Markdown || !ColorsEnabled() {
		return
	}
	width := ui.WordWrap
	if tw := GetTerminalWidth() - 2; width <= 0 || width > tw {
		width = tw
	}
	if r, err := markup.NewRenderer(ui.Theme, width); err == nil {
		p.renderer = r
	}
}

// flush prints entries added since the last flush, then the stats when
// they changed.
func (p *printer) flush(tr *transcript.Transcript) {
	for _, e := range tr.Since(p.cursor) {
		p.entry(e)
	}
	p.cursor = tr.Len()

	board := tr.Stats()
	if board.Updates() != p.statsUpdates {
		p.statsUpdates = board.Updates()
		fmt.Fprintln(p.w, DimStyle.Render("  "+board.Text()))
	}
}

func (p *printer) entry(e transcript.Entry) {
	switch e.Kind {
	case transcript.KindTurn:
		if e.Sender == transcript.SenderPlayer {
			if p.echoPlayer {
				fmt.Fprintf(p.w, "%s %s\n", PlayerStyle.Render(e.Sender.Label()+":"), e.Text)
			}
			return
		}
		fmt.Fprintf(p.w, "%s %s\n", GuideStyle.Render(e.Sender.Label()+":"), p.guideText(e.Text))

	case transcript.KindCard:
		p.card(e)

	case transcript.KindRedirect:
		fmt.Fprintf(p.w, "%s\n  %s %s\n", CardStyle.Render(e.Text),
			mentor.RedirectLinkText, LinkStyle.Render(e.URL))

	case transcript.KindReflection:
		fmt.Fprintln(p.w, ReflectionStyle.Render("✨ "+e.Text))
	}
}

func (p *printer) card(e transcript.Entry) {
	if c := e.Card; c != nil {
		var parts []string
		for _, s := range []string{c.Emoji, c.Title} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			fmt.Fprintln(p.w, CardStyle.Render(strings.Join(parts, " ")))
		}
		if c.Score != "" {
			line := fmt.Sprintf("  Score: %s (%s)", c.Score, c.Percent)
			if c.Topic != "" {
				line += "  Topic: " + c.Topic
			}
			fmt.Fprintln(p.w, line)
		}
	}
	for i, a := range e.Actions {
		fmt.Fprintf(p.w, "  %s %s\n", LabelStyle.Render(fmt.Sprintf("[%d]", i+1)), a.Label)
	}
	if len(e.Actions) > 0 && p.pickHint {
		fmt.Fprintln(p.w, DimStyle.Render("  Type /pick N to choose."))
	}
}

func (p *printer) guideText(text string) string {
	if text == mentor.FallbackText {
		return ErrorStyle.Render(text)
	}
	if p.renderer == nil {
		return markup.PlainText(text)
	}
	out := p.renderer.RenderHTML(text)
	if strings.Contains(out, "\n") {
		return "\n" + out
	}
	return strings.TrimSpace(out)
}
