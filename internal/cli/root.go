// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/config"
	"github.com/JDLewis4313/genius-edtech/internal/logging"
)

// BuildInfo is stamped into the binary by the linker.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// LogFileName is the interactive session log inside the config directory.
const LogFileName = "mentari.log"

// app carries what every command shares: flags, config, logger and I/O.
type app struct {
	build BuildInfo

	cfgFile   string
	baseURL   string
	verbose   bool
	noArchive bool

	serveFlags serveFlags

	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger

	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	terminal func() bool
}

func newApp(build BuildInfo) *app {
	return &app{
		build:    build,
		in:       os.Stdin,
		out:      os.Stdout,
		errOut:   os.Stderr,
		terminal: func() bool { return IsTTY() && IsStdoutTTY() },
		logger:   zap.NewNop(),
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(build BuildInfo) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(build)
	root := a.rootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.errOut, ErrorStyle.Render("Error:"), err)
		return ExitCode(err)
	}
	return ExitSuccess
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "mentari",
		Short: "Chat with Mentari, the GeNiUS EdTech learning companion",
		Long: `mentari is a terminal client for the Mentari chat on a GeNiUS EdTech site.

Run without arguments to open the full-screen chat. Ask questions, take
quizzes with Tab and Enter, and press Ctrl+R for a reflection. When stdin
is not a terminal, mentari reads one message per line instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.terminal() {
				return a.runTUI(cmd.Context())
			}
			return a.runChat(cmd.Context(), chatOptions{})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.mentari/config.toml)")
	flags.StringVar(&a.baseURL, "base-url", "", "root URL of the GeNiUS EdTech site")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&a.noArchive, "no-archive", false, "do not save the transcript on exit")

	root.AddCommand(
		a.chatCommand(),
		a.askCommand(),
		a.reflectCommand(),
		a.historyCommand(),
		a.configCommand(),
		a.serveCommand(),
		a.versionCommand(),
	)

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root
}

// setup loads .env, the config file and the logger before any command runs.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	var err error
	if a.cfgFile != "" {
		a.cfgPath = a.cfgFile
		a.cfg, err = config.LoadFromPath(a.cfgFile)
	} else {
		if a.cfgPath, err = config.ActivePath(); err != nil {
			return err
		}
		a.cfg, err = config.Load()
	}
	if err != nil {
		// The config commands must work on a broken file so it can be fixed.
		if !isConfigCommand(cmd) {
			return err
		}
		fmt.Fprintln(a.errOut, ErrorStyle.Render("Warning:"), err)
		a.cfg = config.Default()
	}

	if a.baseURL != "" {
		a.cfg.Server.BaseURL = a.baseURL
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.New(a.logOptions(cmd))
	if err != nil {
		fmt.Fprintln(a.errOut, ErrorStyle.Render("Warning:"), err, "(logging disabled)")
		logger = zap.NewNop()
	}
	a.logger = logger
	return nil
}

func (a *app) logOptions(cmd *cobra.Command) logging.Options {
	opts := logging.Options{
		Level:    a.cfg.Log.Level,
		Encoding: a.cfg.Log.Encoding,
		File:     a.cfg.Log.File,
	}
	if a.verbose {
		opts.Level = "debug"
	}
	if opts.File == "" && isInteractive(cmd) {
		if dir, err := config.ConfigDir(); err == nil {
			opts.File = filepath.Join(dir, LogFileName)
		}
	}
	return opts
}

func isInteractive(cmd *cobra.Command) bool {
	return cmd == cmd.Root() || cmd.Name() == "chat"
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}
