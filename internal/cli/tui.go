// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/config"
	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/ui/chat"
	"github.com/JDLewis4313/genius-edtech/internal/ui/styles"
)

// runTUI opens the full-screen chat and archives the transcript when it
// closes.
func (a *app) runTUI(ctx context.Context) error {
	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}

	input := chat.NewInput()
	ctrl := mentor.New(client, input, a.controllerOptions(client))

	model := chat.New(ctrl, input, themeFor(a.cfg.UI.Theme), chat.Options{
		Title:    a.cfg.Server.BaseURL,
		Markdown: a.cfg.UI.Markdown,
		Style:    a.cfg.UI.Theme,
		Compact:  a.cfg.UI.Compact,
		Logger:   a.logger,
	})

	a.logger.Info("tui started", zap.String("base_url", a.cfg.Server.BaseURL))

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.watchConfig(watchCtx, func(cfg *config.Config) {
		p.Send(settingsFor(cfg))
	})

	_, err = p.Run()
	stopWatch()
	a.archive(ctrl.Transcript())

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat screen failed: %w", err)
	}
	return nil
}

// themeFor builds the screen theme for a ui.theme value. "auto" asks the
// terminal.
func themeFor(name string) *styles.Theme {
	theme := styles.NewTheme()
	switch name {
	case "dark":
		theme = styles.NewThemeForProfile(theme.ColorProfile, true)
	case "light":
		theme = styles.NewThemeForProfile(theme.ColorProfile, false)
	case "notty":
		theme = styles.NewThemeForProfile(termenv.Ascii, theme.IsDark)
	}
	return theme
}

// settingsFor is the part of cfg a running chat screen can pick up. The
// server address is fixed for the life of the screen.
func settingsFor(cfg *config.Config) chat.SettingsMsg {
	return chat.SettingsMsg{
		Controller: chatSettings(cfg.Chat),
		Theme:      cfg.UI.Theme,
		Markdown:   cfg.UI.Markdown,
		Compact:    cfg.UI.Compact,
	}
}
