// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JDLewis4313/genius-edtech/internal/config"
	"github.com/JDLewis4313/genius-edtech/internal/export"
	"github.com/JDLewis4313/genius-edtech/internal/mentari"
	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/server"
	"github.com/JDLewis4313/genius-edtech/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

type result struct {
	out    string
	errOut string
	err    error
}

// setupHome isolates config, archive and history under a temp directory.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("MENTARI_HOME", home)
	t.Setenv("MENTARI_LOG_LEVEL", "error")
	t.Setenv("NO_COLOR", "1")
	return home
}

func newStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := server.New(server.Options{
		Seed:       42,
		QuizLength: 5,
		Logger:     zaptest.NewLogger(t),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// run executes the command line with stdin and captures both streams.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer

	a := newApp(BuildInfo{Version: "1.2.3", Commit: "abc1234", Date: "2025-01-02"})
	a.in = strings.NewReader(stdin)
	a.out = &out
	a.errOut = &errOut
	a.terminal = func() bool { return false }

	root := a.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

// =============================================================================
// ASK & REFLECT
// =============================================================================

func TestAskPrintsReplyAndStats(t *testing.T) {
	setupHome(t)
	ts := newStub(t)

	res := run(t, "", "--base-url", ts.URL, "ask", "hello")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Mentari:")
	assert.Contains(t, res.out, "I'm Mentari")
	assert.Contains(t, res.out, "Interactions: 1")
	assert.NotContains(t, res.out, "You:")
}

func TestAskRawPrintsJSON(t *testing.T) {
	setupHome(t)
	ts := newStub(t)

	res := run(t, "", "--base-url", ts.URL, "ask", "--raw", "hello")
	require.NoError(t, res.err)

	var resp mentari.ChatResponse
	require.NoError(t, json.Unmarshal([]byte(res.out), &resp))
	assert.Contains(t, resp.Text, "I'm Mentari")
	require.NotNil(t, resp.Stats)
	assert.Equal(t, mentari.Scalar("1"), resp.Stats.TotalInteractions)
}

func TestAskQuizShowsChoices(t *testing.T) {
	setupHome(t)
	ts := newStub(t)

	res := run(t, "", "--base-url", ts.URL, "ask", "quiz", "on", "atoms")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Question 1 of 5")
	assert.Contains(t, res.out, "[1] A) ")
	assert.Contains(t, res.out, "[4] D) ")
	assert.NotContains(t, res.out, "/pick")
}

func TestAskUnreachableService(t *testing.T) {
	setupHome(t)

	res := run(t, "", "--base-url", "http://127.0.0.1:1", "ask", "hello")
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, errNoReply))
	assert.Equal(t, ExitNetworkError, ExitCode(res.err))
	assert.Contains(t, res.out, "momentarily gathering wisdom")
}

func TestAskRequiresMessage(t *testing.T) {
	setupHome(t)

	res := run(t, "", "ask")
	require.Error(t, res.err)
}

func TestReflect(t *testing.T) {
	setupHome(t)
	ts := newStub(t)

	res := run(t, "", "--base-url", ts.URL, "reflect", "--name", "Ada", "--action", "daydreaming")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "✨")
	assert.Contains(t, res.out, "Ada")
	assert.Contains(t, res.out, "daydreaming")
}

// =============================================================================
// CHAT REPL
// =============================================================================

func TestChatPipedInput(t *testing.T) {
	setupHome(t)
	ts := newStub(t)

	stdin := "hello\nquiz on atoms\n/pick 1\n/stats\n/bogus\n/quit\nnever sent\n"
	res := run(t, stdin, "--base-url", ts.URL, "chat")
	require.NoError(t, res.err)

	assert.Contains(t, res.out, "You: hello")
	assert.Contains(t, res.out, "I'm Mentari")
	assert.Contains(t, res.out, "Question 1 of 5")
	assert.Contains(t, res.out, "Type /pick N to choose.")
	assert.Contains(t, res.out, "You: answer: A")
	assert.Contains(t, res.out, "Interactions: 3")
	assert.Contains(t, res.out, "unknown command /bogus")
	assert.NotContains(t, res.out, "never sent")

	assert.Contains(t, res.errOut, "Transcript saved as")
}

func TestChatPickOutOfRange(t *testing.T) {
	setupHome(t)
	ts := newStub(t)

	res := run(t, "/pick 1\nquiz on atoms\n/pick 9\n", "--base-url", ts.URL, "--no-archive", "chat")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Nothing to pick yet.")
	assert.Contains(t, res.out, "pick a number from 1 to 4")
	assert.NotContains(t, res.errOut, "Transcript saved")
}

// newTestREPL builds a line-mode session without starting its loop.
func newTestREPL(t *testing.T, cfgPath string) *repl {
	t.Helper()
	a := newApp(BuildInfo{})
	a.cfg = config.Default()
	a.cfgPath = cfgPath
	a.out = &bytes.Buffer{}
	a.logger = zaptest.NewLogger(t)

	client, err := mentari.NewClientWithConfig(a.cfg.ClientConfig())
	require.NoError(t, err)
	return &repl{
		a:       a,
		ctx:     context.Background(),
		ctrl:    mentor.New(client, &mentor.Buffer{}, a.controllerOptions(client)),
		printer: a.newPrinter(true),
		reloads: make(chan *config.Config, 1),
	}
}

func TestChatAppliesNewestReload(t *testing.T) {
	setupHome(t)
	r := newTestREPL(t, filepath.Join(t.TempDir(), "config.toml"))

	first := config.Default()
	first.Chat.RetryMessage = "quiz on cells"
	second := config.Default()
	second.Chat.RetryMessage = "quiz on molecules"
	second.Chat.OrderedReplies = true

	r.queueReload(first)
	r.queueReload(second)
	r.applyReload()

	opts := r.ctrl.Options()
	assert.Equal(t, "quiz on molecules", opts.RetryMessage)
	assert.True(t, opts.Ordered)

	r.applyReload()
	assert.Equal(t, "quiz on molecules", r.ctrl.Options().RetryMessage, "nothing pending is a no-op")
}

func TestChatPicksUpConfigFileChanges(t *testing.T) {
	setupHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\nretry_message = \"quiz on cells\"\n"), 0o600))
	r := newTestREPL(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.a.watchConfig(ctx, r.queueReload)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[chat]\nretry_message = \"quiz on ions\"\n"), 0o600))

	require.Eventually(t, func() bool {
		r.applyReload()
		return r.ctrl.Options().RetryMessage == "quiz on ions"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRootWithoutTerminalRunsLineMode(t *testing.T) {
	setupHome(t)
	ts := newStub(t)

	res := run(t, "hello\n", "--base-url", ts.URL, "--no-archive")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "I'm Mentari")
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistoryLifecycle(t *testing.T) {
	home := setupHome(t)
	ts := newStub(t)

	res := run(t, "", "history", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No saved transcripts.")

	res = run(t, "hello\n", "--base-url", ts.URL, "chat")
	require.NoError(t, res.err)

	res = run(t, "", "history", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "TITLE")
	assert.Contains(t, res.out, "hello")

	res = run(t, "", "history", "list", "--json")
	require.NoError(t, res.err)
	var metas []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.out), &metas))
	require.Len(t, metas, 1)
	assert.Equal(t, "hello", metas[0]["title"])

	res = run(t, "", "history", "show", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "You: hello")
	assert.Contains(t, res.out, "I'm Mentari")

	outDir := filepath.Join(home, "exports")
	res = run(t, "", "history", "export", "1", "--format", "json", "--output", outDir)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Exported to")
	files, err := filepath.Glob(filepath.Join(outDir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	res = run(t, "", "history", "export", "1", "--format", "pdf")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))

	res = run(t, "", "history", "delete", "1")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))

	res = run(t, "", "history", "delete", "1", "--yes")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Deleted")

	res = run(t, "", "history", "show", "1")
	require.Error(t, res.err)
	assert.Equal(t, ExitNotFoundError, ExitCode(res.err))
}

func TestChatResumeContinuesTranscript(t *testing.T) {
	setupHome(t)
	ts := newStub(t)

	require.NoError(t, run(t, "hello\n", "--base-url", ts.URL, "chat").err)

	res := run(t, "how am I doing?\n", "--base-url", ts.URL, "chat", "--resume", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "You: hello")
	assert.Contains(t, res.out, "You: how am I doing?")

	res = run(t, "", "history", "list", "--json")
	require.NoError(t, res.err)
	var metas []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.out), &metas))
	require.Len(t, metas, 1)
	assert.EqualValues(t, 4, metas[0]["entry_count"])
}

func TestHistoryUsesSQLiteBackend(t *testing.T) {
	setupHome(t)
	ts := newStub(t)
	t.Setenv("MENTARI_STORAGE_BACKEND", "sqlite")

	require.NoError(t, run(t, "hello\n", "--base-url", ts.URL, "chat").err)

	res := run(t, "", "history", "show", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "You: hello")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigPathSetGet(t *testing.T) {
	home := setupHome(t)

	res := run(t, "", "config", "path")
	require.NoError(t, res.err)
	assert.Equal(t, filepath.Join(home, "config.toml"), strings.TrimSpace(res.out))

	res = run(t, "", "config", "set", "ui.theme", "dark")
	require.NoError(t, res.err)
	_, err := os.Stat(filepath.Join(home, "config.toml"))
	require.NoError(t, err)

	res = run(t, "", "config", "get", "ui.theme")
	require.NoError(t, res.err)
	assert.Equal(t, "dark", strings.TrimSpace(res.out))

	res = run(t, "", "config", "set", "server.timeout", "45s")
	require.NoError(t, res.err)
	res = run(t, "", "config", "get", "server.timeout")
	require.NoError(t, res.err)
	assert.Equal(t, "45s", strings.TrimSpace(res.out))

	res = run(t, "", "config", "set", "ui.theme", "neon")
	require.Error(t, res.err)
	assert.Equal(t, ExitConfigError, ExitCode(res.err))

	res = run(t, "", "config", "get", "no.such_key")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

func TestConfigSetDoesNotSaveEnvironment(t *testing.T) {
	home := setupHome(t)
	t.Setenv("MENTARI_BASE_URL", "http://env.example:9000")

	require.NoError(t, run(t, "", "config", "set", "ui.compact", "true").err)

	data, err := os.ReadFile(filepath.Join(home, "config.toml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "env.example")
	assert.Contains(t, string(data), "compact = true")
}

func TestConfigInitAndShow(t *testing.T) {
	setupHome(t)

	require.NoError(t, run(t, "", "config", "init").err)

	res := run(t, "", "config", "init")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))

	require.NoError(t, run(t, "", "config", "init", "--force").err)

	res = run(t, "", "config", "show")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `"base_url": "http://127.0.0.1:8000"`)

	res = run(t, "", "config", "keys")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "server.base_url")
	assert.Contains(t, res.out, "stub.quiz_length")
}

func TestConfigCommandsSurviveBrokenFile(t *testing.T) {
	home := setupHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte("[ui]\ntheme = \"neon\"\n"), 0o600))

	res := run(t, "", "config", "path")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "Warning:")

	res = run(t, "", "ask", "hello")
	require.Error(t, res.err)
	assert.Equal(t, ExitConfigError, ExitCode(res.err))
}

func TestBadBaseURLFlag(t *testing.T) {
	setupHome(t)

	res := run(t, "", "--base-url", "not a url", "ask", "hello")
	require.Error(t, res.err)
	assert.Equal(t, ExitConfigError, ExitCode(res.err))
}

// =============================================================================
// VERSION & EXIT CODES
// =============================================================================

func TestVersion(t *testing.T) {
	setupHome(t)

	res := run(t, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "mentari 1.2.3")
	assert.Contains(t, res.out, "abc1234")

	res = run(t, "", "version", "--json")
	require.NoError(t, res.err)
	var v VersionInfo
	require.NoError(t, json.Unmarshal([]byte(res.out), &v))
	assert.Equal(t, "1.2.3", v.Version)
	assert.Equal(t, "2025-01-02", v.Date)
	assert.NotEmpty(t, v.GoVersion)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usageErrorf("bad"), ExitUsageError},
		{"config", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}), ExitConfigError},
		{"not found", fmt.Errorf("wrapped: %w", storage.ErrTranscriptNotFound), ExitNotFoundError},
		{"empty export", export.ErrEmptyTranscript, ExitNotFoundError},
		{"no reply", errNoReply, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	setupHome(t)

	a := newApp(BuildInfo{})
	a.out, a.errOut = &bytes.Buffer{}, &bytes.Buffer{}
	root := a.rootCommand()
	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)

	a.cfg = config.Default()
	require.NoError(t, serve.Flags().Parse([]string{"--addr", "127.0.0.1:9999", "--quiz-length", "3"}))
	require.NoError(t, serve.PreRunE(serve, nil))

	assert.Equal(t, "127.0.0.1:9999", a.cfg.Stub.Addr)
	assert.Equal(t, 3, a.cfg.Stub.QuizLength)
	assert.Equal(t, config.Default().Stub.RateLimit, a.cfg.Stub.RateLimit)

	require.NoError(t, serve.Flags().Parse([]string{"--rate-limit", "-1"}))
	assert.Error(t, serve.PreRunE(serve, nil))
}
