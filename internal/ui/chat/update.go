// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/markup"
	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/ui/styles"
)

// SettingsMsg carries reloaded settings into a running chat screen.
type SettingsMsg struct {
	Controller mentor.Options

	// Theme is the ui.theme value: auto, dark, light or notty.
	Theme    string
	Markdown bool
	Compact  bool
}

// Update handles window, key, spinner and controller messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.ctrl.Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mentor.ReplyMsg, mentor.ReflectionMsg:
		m.ctrl.Update(msg)
		m.refreshActions()
		m.refreshViewport(true)
		return m, nil

	case SettingsMsg:
		return m.applySettings(msg), nil
	}

	var cmd tea.Cmd
	*m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	vh := msg.Height - headerHeight - footerHeight
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = vh
	m.input.Width = msg.Width - 6
	m.help.Width = msg.Width

	m.rebuildRenderer()

	m.ready = true
	m.refreshViewport(true)
	return m
}

func (m Model) applySettings(msg SettingsMsg) Model {
	m.ctrl.Reconfigure(msg.Controller)
	m.opts.Markdown = msg.Markdown
	m.opts.Style = msg.Theme
	m.opts.Compact = msg.Compact

	m.theme = m.themeFor(msg.Theme)
	m.theme.SetSize(m.width, m.height)
	m.input.PromptStyle = m.theme.InputPrompt
	m.input.PlaceholderStyle = m.theme.InputPlaceholder
	m.spinner.Style = m.theme.Spinner

	m.logger.Info("settings reloaded",
		zap.Bool("markdown", m.opts.Markdown),
		zap.String("style", m.opts.Style),
		zap.Bool("compact", m.opts.Compact))

	if !m.ready {
		return m
	}
	m.rebuildRenderer()
	m.refreshViewport(false)
	return m
}

// themeFor derives a theme from the one the screen started with, so the
// terminal is never queried while bubbletea owns it. "auto" restores it.
func (m Model) themeFor(name string) *styles.Theme {
	switch name {
	case markup.StyleDark:
		return styles.NewThemeForProfile(m.baseTheme.ColorProfile, true)
	case markup.StyleLight:
		return styles.NewThemeForProfile(m.baseTheme.ColorProfile, false)
	case markup.StyleNoTTY:
		return styles.NewThemeForProfile(termenv.Ascii, m.baseTheme.IsDark)
	}
	return m.baseTheme
}

func (m *Model) rebuildRenderer() {
	m.renderer = nil
	if !m.opts.Markdown {
		return
	}
	r, err := markup.NewRenderer(m.glamourStyle(), m.theme.BubbleWidth()-4)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
	}
	m.renderer = r
}

// glamourStyle resolves "auto" from the theme so glamour never queries the
// terminal while bubbletea owns it.
func (m Model) glamourStyle() string {
	switch m.opts.Style {
	case markup.StyleDark, markup.StyleLight, markup.StyleNoTTY:
		return m.opts.Style
	}
	if m.theme.IsDark {
		return markup.StyleDark
	}
	return markup.StyleLight
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Reflect):
		return m, m.ctrl.TriggerReflection()

	case key.Matches(msg, m.keys.FocusNext):
		m.moveFocus(1)
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.FocusPrev):
		m.moveFocus(-1)
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	if m.focus != noFocus {
		// Typing returns focus to the message box.
		m.setFocus(noFocus)
		m.refreshViewport(false)
	}
	var cmd tea.Cmd
	*m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the message box, or activates the focused action.
func (m Model) submit() (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if entryID, index, ok := m.Focused(); ok {
		cmd = m.ctrl.Activate(entryID, index)
		m.setFocus(noFocus)
	} else {
		cmd = m.ctrl.HandleKey("enter")
	}
	if cmd == nil {
		return m, nil
	}

	m.refreshViewport(true)
	if m.spinning {
		return m, cmd
	}
	m.spinning = true
	return m, tea.Batch(cmd, m.spinner.Tick)
}
