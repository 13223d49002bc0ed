// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/JDLewis4313/genius-edtech/internal/markup"
	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Starting mentari..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStats(),
		m.help.View(m.keys),
	)
}

// refreshViewport re-renders the transcript. follow scrolls to the end.
func (m *Model) refreshViewport(follow bool) {
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("☀ Mentari")
	hint := ""
	if m.opts.Title != "" {
		hint = m.theme.HeaderHint.Render("  " + m.opts.Title)
	}
	return m.theme.Header.Width(m.width).Render(title + hint)
}

func (m Model) renderInput() string {
	line := m.input.View()
	if n := m.ctrl.InFlight(); n > 0 {
		waiting := "Mentari is thinking"
		if n > 1 {
			waiting = fmt.Sprintf("Mentari is thinking (%d pending)", n)
		}
		line = m.spinner.View() + " " + m.theme.Thinking.Render(waiting) + "  " + line
	}
	return m.theme.InputContainer.Width(m.width).Render(line)
}

func (m Model) renderStats() string {
	stats, ok := m.ctrl.Stats().Current()
	if !ok {
		return m.theme.StatsBar.Width(m.width).Render(
			m.theme.StatsLabel.Render("Your progress appears after your first message."))
	}
	field := func(label, value string) string {
		return m.theme.StatsLabel.Render(label+": ") + m.theme.StatsValue.Render(value)
	}
	return m.theme.StatsBar.Width(m.width).Render(strings.Join([]string{
		field("Interactions", stats.TotalInteractions),
		field("Growth", stats.GrowthIndicators),
		field("Support", stats.SupportNeeded),
	}, "   "))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript() string {
	entries := m.ctrl.Transcript().Entries()
	if len(entries) == 0 {
		return m.theme.HeaderHint.Render(
			"\n  Say hello, ask a question, or type 'quiz on atoms' to test yourself.\n")
	}

	focusedID, focusedIndex, hasFocus := m.Focused()
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case transcript.KindTurn:
			blocks = append(blocks, m.renderTurn(e))
		case transcript.KindCard:
			sel := -1
			if hasFocus && focusedID == e.ID {
				sel = focusedIndex
			}
			blocks = append(blocks, m.renderCard(e, sel))
		case transcript.KindRedirect:
			blocks = append(blocks, m.renderRedirect(e))
		case transcript.KindReflection:
			blocks = append(blocks, m.theme.Reflection.Width(m.theme.BubbleWidth()).Render("✨ "+e.Text))
		}
	}
	return strings.Join(blocks, "\n")
}

func (m Model) renderTurn(e transcript.Entry) string {
	width := m.theme.BubbleWidth()
	stamp := m.theme.Timestamp.Render(" " + e.Timestamp.Format("15:04"))

	if e.Sender == transcript.SenderPlayer {
		label := m.theme.PlayerLabel.Render(e.Sender.Label()) + stamp
		body := m.bubble(m.theme.PlayerBubble, width).Render(e.Text)
		return lipgloss.JoinVertical(lipgloss.Left, "    "+label, body)
	}

	label := m.theme.GuideLabel.Render(e.Sender.Label()) + stamp
	body := m.bubble(m.theme.GuideBubble, width).Render(m.renderGuideText(e.Text))
	return lipgloss.JoinVertical(lipgloss.Left, label, body)
}

// renderGuideText renders guide HTML (or markdown) for the terminal.
func (m Model) renderGuideText(text string) string {
	if text == mentor.FallbackText {
		return m.theme.Error.Render(text)
	}
	if !m.opts.Markdown || m.renderer == nil {
		return markup.PlainText(text)
	}
	if markup.LooksLikeHTML(text) {
		return m.renderer.RenderHTML(text)
	}
	return m.renderer.Render(text)
}

func (m Model) bubble(style lipgloss.Style, width int) lipgloss.Style {
	if m.opts.Compact {
		return lipgloss.NewStyle().Width(width).PaddingLeft(2)
	}
	return style.Width(width)
}

func (m Model) renderCard(e transcript.Entry, selected int) string {
	var lines []string
	if c := e.Card; c != nil {
		if c.Title != "" {
			lines = append(lines, m.theme.CardTitle.Render(c.Title))
		}
		if c.Score != "" {
			summary := strings.TrimSpace(fmt.Sprintf("%s %s  %s", c.Emoji, c.Score, c.Percent))
			if c.Topic != "" {
				summary += "  " + m.theme.Timestamp.Render(c.Topic)
			}
			lines = append(lines, summary)
		}
	}

	buttons := make([]string, len(e.Actions))
	for i, a := range e.Actions {
		style := m.theme.Action
		if i == selected {
			style = m.theme.ActionSelected
		}
		buttons[i] = style.Render(a.Label)
	}
	if len(buttons) > 0 {
		// Quiz choices can be long, so stack them when they do not fit.
		row := lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
		if lipgloss.Width(row) > m.theme.BubbleWidth() {
			row = lipgloss.JoinVertical(lipgloss.Left, buttons...)
		}
		lines = append(lines, row)
	}

	return m.theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderRedirect(e transcript.Entry) string {
	link := m.theme.Link.Render(mentor.RedirectLinkText)
	if m.theme.ColorProfile != termenv.Ascii {
		link = termenv.Hyperlink(e.URL, link)
	}
	return m.theme.Redirect.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.CardTitle.Render(e.Text),
		link+"  "+m.theme.Timestamp.Render(e.URL),
	))
}
