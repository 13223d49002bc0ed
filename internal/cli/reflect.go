// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) reflectCommand() *cobra.Command {
	var name, action string
	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Print a reflection scene",
		Long: `Ask the service how a character appears while doing something.
Name and action default to chat.character_name and chat.reflection_action.`,
		Example: `  mentari reflect
  mentari reflect --name Ayu --action studying`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = a.cfg.Chat.CharacterName
			}
			if action == "" {
				action = a.cfg.Chat.ReflectionAction
			}

			client, err := a.newClient(cmd.Context())
			if err != nil {
				return err
			}
			got, err := client.RandomAppearance(cmd.Context(), name, action)
			if err != nil {
				return err
			}
			if got == nil || got.Appearance == "" {
				return errNoReply
			}
			fmt.Fprintln(a.out, ReflectionStyle.Render("✨ "+got.Appearance))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "character name")
	cmd.Flags().StringVar(&action, "action", "", "what the character is doing")
	return cmd
}
