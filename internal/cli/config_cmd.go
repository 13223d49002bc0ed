// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
		Long: `Show and change mentari settings.

Settings live in ~/.mentari/config.toml (or config.json). Keys use dot
notation, e.g. server.base_url or ui.theme. MENTARI_* environment variables
and a .env file override the file.`,
	}
	cmd.AddCommand(
		a.configShowCommand(),
		a.configPathCommand(),
		a.configGetCommand(),
		a.configSetCommand(),
		a.configInitCommand(),
		a.configKeysCommand(),
		a.configWatchCommand(),
	)
	return cmd
}

func (a *app) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printJSON([]byte(a.cfg.String()))
		},
	}
}

func (a *app) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.out, a.cfgPath)
			return err
		},
	}
}

func (a *app) configGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Print one setting",
		Example: "  mentari config get server.base_url",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := a.cfg.Get(args[0])
			if err != nil {
				return usageErrorf("%v", err)
			}
			if args[0] == "server.cookies" && value != "" {
				value = "[REDACTED]"
			}
			if s, ok := value.(fmt.Stringer); ok {
				value = s.String()
			}
			_, err = fmt.Fprintln(a.out, value)
			return err
		},
	}
}

func (a *app) configSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting in the config file",
		Example: `  mentari config set server.base_url https://genius.example.edu
  mentari config set storage.backend sqlite
  mentari config set server.timeout 45s`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.fileConfig()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return usageErrorf("%v", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := a.saveConfig(cfg); err != nil {
				return err
			}
			a.logger.Info("config updated", zap.String("key", args[0]), zap.String("path", a.cfgPath))
			fmt.Fprintln(a.out, SuccessStyle.Render(fmt.Sprintf("Set %s", args[0])))
			return nil
		},
	}
}

func (a *app) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.cfgPath); err == nil && !force {
				return usageErrorf("%s already exists (use --force to overwrite)", a.cfgPath)
			}
			if err := a.saveConfig(config.Default()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, SuccessStyle.Render("Wrote "+a.cfgPath))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (a *app) configKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every setting key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.out, strings.Join(config.GetAllKeys(), "\n"))
			return err
		},
	}
}

func (a *app) configWatchCommand() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Validate the config file every time it changes",
		Long: `Watch the config file and report whether each saved version is valid.
Useful while editing settings by hand. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, DimStyle.Render("Watching "+a.cfgPath))
			return config.Watch(cmd.Context(), a.cfgPath, debounce, func(cfg *config.Config, err error) {
				stamp := time.Now().Format("15:04:05")
				if err != nil {
					fmt.Fprintln(a.out, stamp, ErrorStyle.Render("invalid:"), err)
					return
				}
				fmt.Fprintln(a.out, stamp, SuccessStyle.Render("ok"), DimStyle.Render(cfg.Server.BaseURL))
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", config.DefaultDebounce, "wait this long after a change")
	return cmd
}

// fileConfig reads only the config file, without environment overrides, so
// saving it back does not capture them.
func (a *app) fileConfig() (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(a.cfgPath); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	var err error
	if strings.HasSuffix(a.cfgPath, ".json") {
		err = config.LoadJSON(cfg, a.cfgPath)
	} else {
		err = config.LoadTOML(cfg, a.cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", a.cfgPath, err)
	}
	return cfg, nil
}

func (a *app) saveConfig(cfg *config.Config) error {
	if strings.HasSuffix(a.cfgPath, ".json") {
		return config.SaveJSON(cfg, a.cfgPath)
	}
	return config.SaveTOML(cfg, a.cfgPath)
}
