// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/config"
	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/storage"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

// HistoryFileName holds line-mode input history inside the config directory.
const HistoryFileName = "chat_history"

// errQuit ends the REPL normally.
var errQuit = errors.New("quit")

type chatOptions struct {
	resume string
}

func (a *app) chatCommand() *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode",
		Long: `Chat with Mentari one line at a time.

Commands during chat:
  /pick N     choose action N of the latest card (quiz answers, retry)
  /reflect    ask for a reflection scene
  /stats      show your progress
  /save       save the transcript now
  /help       show this help
  /quit       leave (Ctrl+D works too)`,
		Example: `  mentari chat
  mentari chat --resume 3f2a9c1e
  echo "quiz on atoms" | mentari chat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.resume, "resume", "", "continue a saved transcript (ID, prefix or list number)")
	return cmd
}

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one line of player input. io.EOF ends the session.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader edits lines with history on an interactive terminal.
type linerReader struct {
	state       *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{state: state, historyFile: filepath.Join(dir, HistoryFileName)}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = state.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}
	return line, nil
}

func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o755); err == nil {
		if f, err := os.Create(r.historyFile); err == nil {
			_, _ = r.state.WriteHistory(f)
			f.Close()
		}
	}
	return r.state.Close()
}

// scanReader reads piped input without prompting.
type scanReader struct {
	sc *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	a       *app
	ctx     context.Context
	ctrl    *mentor.Controller
	printer *printer
	input   lineReader

	// reloads holds the newest config file version not yet applied.
	reloads chan *config.Config
}

func (a *app) runChat(ctx context.Context, opts chatOptions) error {
	tr := transcript.New()
	if opts.resume != "" {
		rec, err := a.loadRecord(opts.resume)
		if err != nil {
			return err
		}
		tr = transcript.FromRecord(rec)
	}

	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}

	interactive := a.terminal() && a.in == os.Stdin
	r := &repl{
		a:       a,
		ctx:     ctx,
		ctrl:    mentor.NewWithTranscript(client, &mentor.Buffer{}, tr, a.controllerOptions(client)),
		printer: a.newPrinter(!interactive),
		reloads: make(chan *config.Config, 1),
	}
	r.printer.pickHint = true
	if interactive {
		r.input = newLinerReader()
		r.printWelcome()
	} else {
		r.input = &scanReader{sc: bufio.NewScanner(a.in)}
	}
	defer r.input.Close()

	if opts.resume != "" {
		// Show where the conversation left off.
		echo := r.printer.echoPlayer
		r.printer.echoPlayer = true
		r.printer.flush(tr)
		r.printer.echoPlayer = echo
	}
	r.printer.cursor = tr.Len()

	a.logger.Info("chat started",
		zap.String("base_url", a.cfg.Server.BaseURL),
		zap.String("transcript", tr.ID()),
		zap.Bool("interactive", interactive),
	)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.watchConfig(watchCtx, r.queueReload)

	err = r.loop()
	stopWatch()
	a.archive(tr)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// queueReload replaces any pending config version with cfg.
func (r *repl) queueReload(cfg *config.Config) {
	for {
		select {
		case r.reloads <- cfg:
			return
		default:
		}
		select {
		case <-r.reloads:
		default:
		}
	}
}

// applyReload applies the pending config version, if any, between turns.
// The server and archive settings stay as the session started.
func (r *repl) applyReload() {
	select {
	case cfg := <-r.reloads:
		r.ctrl.Reconfigure(chatSettings(cfg.Chat))
		r.printer.configure(cfg.UI)
	default:
	}
}

func (r *repl) loop() error {
	for {
		if r.ctx.Err() != nil {
			return errQuit
		}
		r.applyReload()
		line, err := r.input.Prompt(PlayerStyle.Render("You") + " › ")
		if errors.Is(err, io.EOF) {
			return errQuit
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "/") {
			if err := r.command(line); err != nil {
				return err
			}
			continue
		}

		await(r.ctx, r.ctrl, r.ctrl.Send(line))
		r.printer.flush(r.ctrl.Transcript())
	}
}

// command runs a slash command.
func (r *repl) command(line string) error {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/q", "/exit":
		return errQuit

	case "/help", "/h":
		r.printHelp()

	case "/reflect", "/r":
		await(r.ctx, r.ctrl, r.ctrl.TriggerReflection())
		r.printer.flush(r.ctrl.Transcript())

	case "/stats", "/s":
		if text := r.ctrl.Stats().Text(); text != "" {
			fmt.Fprintln(r.a.out, text)
		} else {
			fmt.Fprintln(r.a.out, DimStyle.Render("No stats yet. Send a message first."))
		}

	case "/pick", "/p":
		r.pick(fields[1:])

	case "/save":
		r.a.archive(r.ctrl.Transcript())

	default:
		fmt.Fprintf(r.a.out, "%s unknown command %s (try /help)\n", ErrorStyle.Render("!"), fields[0])
	}
	return nil
}

// pick activates an action of the newest card that has actions.
func (r *repl) pick(args []string) {
	ids := r.ctrl.Transcript().ActionIDs()
	if len(ids) == 0 {
		fmt.Fprintln(r.a.out, DimStyle.Render("Nothing to pick yet."))
		return
	}
	entryID := ids[len(ids)-1]
	entry, _ := r.ctrl.Transcript().Get(entryID)

	n := 0
	if len(args) == 1 {
		n, _ = strconv.Atoi(args[0])
	}
	if n < 1 || n > len(entry.Actions) {
		fmt.Fprintf(r.a.out, "%s pick a number from 1 to %d\n", ErrorStyle.Render("!"), len(entry.Actions))
		return
	}

	cmd := r.ctrl.Activate(entryID, n-1)
	if r.printer.echoPlayer {
		// The choice was never typed, so show what was sent.
		r.printer.flush(r.ctrl.Transcript())
	} else {
		r.printer.cursor = r.ctrl.Transcript().Len()
		fmt.Fprintln(r.a.out, DimStyle.Render("→ "+entry.Actions[n-1].Message))
	}
	await(r.ctx, r.ctrl, cmd)
	r.printer.flush(r.ctrl.Transcript())
}

func (r *repl) printWelcome() {
	fmt.Fprintln(r.a.out, TitleStyle.Render("☀ Mentari")+" "+DimStyle.Render(r.a.cfg.Server.BaseURL))
	fmt.Fprintln(r.a.out, DimStyle.Render("Say hello, or try 'quiz on atoms'. /help lists commands, Ctrl+D leaves."))
	fmt.Fprintln(r.a.out)
}

func (r *repl) printHelp() {
	rows := [][2]string{
		{"/pick N", "choose action N of the latest card"},
		{"/reflect", "ask for a reflection scene"},
		{"/stats", "show your progress"},
		{"/save", "save the transcript now"},
		{"/quit", "leave"},
	}
	for _, row := range rows {
		fmt.Fprintf(r.a.out, "  %s %s\n", LabelStyle.Render(fmt.Sprintf("%-10s", row[0])), row[1])
	}
}

// loadRecord resolves a saved transcript by reference.
func (a *app) loadRecord(ref string) (transcript.Record, error) {
	store, err := a.openStore()
	if err != nil {
		return transcript.Record{}, fmt.Errorf("failed to open transcript archive: %w", err)
	}
	defer store.Close()
	return storage.Resolve(store, ref)
}
