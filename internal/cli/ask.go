// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/cobra"

	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

func (a *app) askCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: "Send one message and print the reply",
		Example: `  mentari ask hello
  mentari ask quiz on atoms
  mentari ask --raw "how am I doing?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return usageErrorf("message is empty")
			}
			if raw {
				return a.askRaw(cmd.Context(), message)
			}
			return a.ask(cmd.Context(), message)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the service's JSON reply")
	return cmd
}

// ask sends message through a controller so the reply is rendered exactly
// as in chat.
func (a *app) ask(ctx context.Context, message string) error {
	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}

	ctrl := mentor.New(client, &mentor.Buffer{}, a.controllerOptions(client))
	p := a.newPrinter(false)

	cmd := ctrl.Send(message)
	p.cursor = ctrl.Transcript().Len()
	await(ctx, ctrl, cmd)
	p.flush(ctrl.Transcript())

	if last, ok := ctrl.Transcript().Last(); ok && last.IsTurn(transcript.SenderGuide) && last.Text == mentor.FallbackText {
		return errNoReply
	}
	return nil
}

func (a *app) askRaw(ctx context.Context, message string) error {
	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	resp, err := client.Chat(ctx, message)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}
	return a.printJSON(data)
}

// printJSON writes data, highlighted when colors are on.
func (a *app) printJSON(data []byte) error {
	if ColorsEnabled() {
		if err := quick.Highlight(a.out, string(data)+"\n", "json", "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	_, err := fmt.Fprintln(a.out, string(data))
	return err
}
