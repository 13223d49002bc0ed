// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/config"
	"github.com/JDLewis4313/genius-edtech/internal/mentari"
	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/storage"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

// newClient creates a chat client and loads the chat page so the service's
// CSRF and session cookies are in the jar. A failed load is logged, not
// fatal: the first message will take the fallback path instead.
func (a *app) newClient(ctx context.Context) (*mentari.Client, error) {
	client, err := mentari.NewClientWithConfig(a.cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Prime(ctx); err != nil {
		a.logger.Warn("could not load the chat page",
			zap.String("base_url", a.cfg.Server.BaseURL),
			zap.Error(err),
		)
	}
	return client, nil
}

func (a *app) controllerOptions(client *mentari.Client) mentor.Options {
	opts := chatSettings(a.cfg.Chat)
	opts.ResolveURL = client.Resolve
	opts.Logger = a.logger
	return opts
}

// chatSettings maps the [chat] table onto controller options. These are
// the settings a running session picks up when the config file changes.
func chatSettings(c config.ChatConfig) mentor.Options {
	return mentor.Options{
		CharacterName:    c.CharacterName,
		ReflectionAction: c.ReflectionAction,
		RetryMessage:     c.RetryMessage,
		Ordered:          c.OrderedReplies,
	}
}

// watchConfig follows the config file until ctx ends, passing each valid
// version to apply. Invalid versions are logged and skipped.
func (a *app) watchConfig(ctx context.Context, apply func(*config.Config)) {
	err := config.Watch(ctx, a.cfgPath, 0, func(cfg *config.Config, err error) {
		if err != nil {
			a.logger.Warn("config reload skipped", zap.String("path", a.cfgPath), zap.Error(err))
			return
		}
		a.logger.Info("config reloaded", zap.String("path", a.cfgPath))
		apply(cfg)
	})
	if err != nil {
		a.logger.Warn("config watch unavailable", zap.String("path", a.cfgPath), zap.Error(err))
	}
}

// await runs cmd off the calling goroutine and applies its result to ctrl.
// It gives up waiting when ctx ends; the request itself is not cancelled.
func await(ctx context.Context, ctrl *mentor.Controller, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		if msg != nil {
			ctrl.Update(msg)
		}
	case <-ctx.Done():
	}
}

// =============================================================================
// ARCHIVE
// =============================================================================

func (a *app) openStore() (storage.Store, error) {
	dir, err := a.cfg.StorageDir()
	if err != nil {
		return nil, err
	}
	return storage.Open(a.cfg.Storage.Backend, dir, a.cfg.Storage.MaxTranscripts)
}

// archive saves tr when archiving is on and tr has something in it.
func (a *app) archive(tr *transcript.Transcript) {
	if !a.cfg.Storage.Enabled || a.noArchive || tr.IsEmpty() {
		return
	}

	store, err := a.openStore()
	if err != nil {
		a.logger.Error("failed to open transcript archive", zap.Error(err))
		fmt.Fprintln(a.errOut, ErrorStyle.Render("Warning:"), "transcript not saved:", err)
		return
	}
	defer store.Close()

	rec := tr.Record()
	if err := store.Save(rec); err != nil {
		a.logger.Error("failed to save transcript", zap.String("id", rec.ID), zap.Error(err))
		fmt.Fprintln(a.errOut, ErrorStyle.Render("Warning:"), "transcript not saved:", err)
		return
	}
	a.logger.Info("transcript saved", zap.String("id", rec.ID), zap.Int("entries", len(rec.Entries)))
	fmt.Fprintln(a.errOut, DimStyle.Render(fmt.Sprintf("Transcript saved as %s (mentari history show %s)",
		storage.ShortID(rec.ID), storage.ShortID(rec.ID))))
}
