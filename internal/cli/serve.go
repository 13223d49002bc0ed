// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JDLewis4313/genius-edtech/internal/server"
)

func (a *app) serveCommand() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local stand-in for the chat service",
		Long: `Run a development server that speaks the same chat API as a GeNiUS
EdTech site: greetings, conversation stats, quizzes and reflections.

Point the client at it with --base-url http://<addr> (the default address
matches the default base URL).`,
		Example: `  mentari serve
  mentari serve --addr 127.0.0.1:9000 --enforce-csrf
  mentari serve --quiz-length 3 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stub := a.cfg.Stub
			if stub.RateLimit > 0 && stub.RateBurst < 1 {
				return usageErrorf("--rate-burst must be at least 1 when rate limiting")
			}
			if stub.QuizLength < 1 {
				return usageErrorf("--quiz-length must be at least 1")
			}

			srv := server.New(server.Options{
				Addr:        stub.Addr,
				EnforceCSRF: stub.EnforceCSRF,
				RateLimit:   stub.RateLimit,
				RateBurst:   stub.RateBurst,
				IdleTimeout: stub.IdleTimeout.Std(),
				QuizLength:  stub.QuizLength,
				Seed:        seed,
				Logger:      a.logger,
			})

			fmt.Fprintln(a.errOut, DimStyle.Render(fmt.Sprintf("Serving on http://%s (Ctrl+C to stop)", srv.Addr())))
			return srv.ListenAndServe(cmd.Context())
		},
	}

	// Flags write straight into the loaded config; setup runs first, so
	// only flags the user set override the file.
	flags := cmd.Flags()
	flags.StringVar(&a.serveFlags.addr, "addr", "", "listen address")
	flags.BoolVar(&a.serveFlags.enforceCSRF, "enforce-csrf", false, "require the CSRF header on chat posts")
	flags.Float64Var(&a.serveFlags.rateLimit, "rate-limit", 0, "requests per second per client (0 disables)")
	flags.IntVar(&a.serveFlags.rateBurst, "rate-burst", 0, "rate limit burst")
	flags.IntVar(&a.serveFlags.quizLength, "quiz-length", 0, "questions per quiz")
	flags.Uint64Var(&seed, "seed", 0, "fix question order and appearances (0 is random)")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("addr") {
			a.cfg.Stub.Addr = a.serveFlags.addr
		}
		if f.Changed("enforce-csrf") {
			a.cfg.Stub.EnforceCSRF = a.serveFlags.enforceCSRF
		}
		if f.Changed("rate-limit") {
			if a.serveFlags.rateLimit < 0 {
				return usageErrorf("--rate-limit must not be negative")
			}
			a.cfg.Stub.RateLimit = a.serveFlags.rateLimit
		}
		if f.Changed("rate-burst") {
			a.cfg.Stub.RateBurst = a.serveFlags.rateBurst
		}
		if f.Changed("quiz-length") {
			a.cfg.Stub.QuizLength = a.serveFlags.quizLength
		}
		return nil
	}
	return cmd
}

// serveFlags holds serve's flag values until they are merged into config.
type serveFlags struct {
	addr        string
	enforceCSRF bool
	rateLimit   float64
	rateBurst   int
	quizLength  int
}
