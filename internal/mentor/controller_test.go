// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKES
// =============================================================================

// fakeChatter answers chat messages from canned JSON bodies.
type fakeChatter struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	calls   []string

	appearance    string
	appearanceErr error
}

func (f *fakeChatter) Chat(_ context.Context, message string) (*mentari.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, message)

	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.replies[message]
	if !ok {
		body = `{"response":"ok"}`
	}
	var resp mentari.ChatResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, &mentari.ClientError{Type: mentari.ErrTypeInvalidResponse, Message: "failed to decode chat reply", Cause: err}
	}
	resp.StatusCode = 200
	return &resp, nil
}

func (f *fakeChatter) RandomAppearance(_ context.Context, characterName, action string) (*mentari.Appearance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "reflect:"+characterName+":"+action)
	if f.appearanceErr != nil {
		return nil, f.appearanceErr
	}
	return &mentari.Appearance{Appearance: f.appearance}, nil
}

func (f *fakeChatter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestController(t *testing.T, chat *fakeChatter, opts Options) (*Controller, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	opts.Logger = zap.New(core)
	return New(chat, &Buffer{}, opts), logs
}

// submit types message, submits it and applies the reply.
func submit(t *testing.T, c *Controller, message string) {
	t.Helper()
	c.Input().SetValue(message)
	run(t, c, c.Submit())
}

func run(t *testing.T, c *Controller, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	c.Update(cmd())
}

var ignoreVolatile = cmpopts.IgnoreFields(transcript.Entry{}, "ID", "Timestamp")

func turn(sender transcript.Sender, text string) transcript.Entry {
	return transcript.Entry{Kind: transcript.KindTurn, Sender: sender, Text: text}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_EchoesBeforeRequest(t *testing.T) {
	chat := &fakeChatter{}
	c, _ := newTestController(t, chat, Options{})

	c.Input().SetValue("  hello mentari  ")
	cmd := c.Submit()
	require.NotNil(t, cmd)

	entries := c.Transcript().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, turn(transcript.SenderPlayer, "hello mentari"), entries[0], "player turn precedes the request")
	assert.Equal(t, "", c.Input().Value())
	assert.Equal(t, 0, chat.callCount())
	assert.True(t, c.Busy())

	c.Update(cmd())
	assert.Equal(t, 1, chat.callCount())
	assert.False(t, c.Busy())
	assert.Equal(t, 2, c.Transcript().Len())
}

func TestSubmit_EmptyIsNoop(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n "} {
		chat := &fakeChatter{}
		c, _ := newTestController(t, chat, Options{})
		c.Input().SetValue(input)

		assert.Nil(t, c.Submit())
		assert.True(t, c.Transcript().IsEmpty())
		assert.Equal(t, 0, chat.callCount())
		assert.Equal(t, input, c.Input().Value())
	}
}

func TestApply_ResponseText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"response":"hi"}`, "hi"},
		{"object", `{"response":{"text":"hi"}}`, "hi"},
		{"empty object", `{"response":{}}`, mentari.PlaceholderText},
		{"missing", `{}`, mentari.PlaceholderText},
		{"empty string", `{"response":""}`, ""},
		{"numeric object text", `{"response":{"text":5}}`, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChatter{replies: map[string]string{"hello": tt.body}}
			c, _ := newTestController(t, chat, Options{})
			submit(t, c, "hello")

			last, ok := c.Transcript().Last()
			require.True(t, ok)
			assert.Equal(t, turn(transcript.SenderGuide, tt.want), last)
		})
	}
}

func TestApply_FailureAppendsSingleFallback(t *testing.T) {
	chat := &fakeChatter{err: &mentari.ClientError{Type: mentari.ErrTypeConnection, Message: "request failed", Cause: errors.New("connection refused")}}
	c, logs := newTestController(t, chat, Options{})

	submit(t, c, "hello")

	want := []transcript.Entry{
		turn(transcript.SenderPlayer, "hello"),
		turn(transcript.SenderGuide, FallbackText),
	}
	if diff := cmp.Diff(want, c.Transcript().Entries(), ignoreVolatile); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, chat.callCount(), "no retry")
	assert.Equal(t, 1, logs.FilterMessage("chat request failed").Len())
	_, hasStats := c.Stats().Current()
	assert.False(t, hasStats)
}

func TestApply_UndecodableBodyUsesFallback(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{"hello": `<html>`}}
	c, _ := newTestController(t, chat, Options{})

	submit(t, c, "hello")

	last, _ := c.Transcript().Last()
	assert.Equal(t, FallbackText, last.Text)
	assert.Equal(t, 2, c.Transcript().Len())
}

func TestApply_NilResponseUsesFallback(t *testing.T) {
	c, logs := newTestController(t, &fakeChatter{}, Options{})
	c.Apply(ReplyMsg{Seq: 1})

	last, _ := c.Transcript().Last()
	assert.Equal(t, FallbackText, last.Text)
	assert.Equal(t, 1, logs.Len())
}

func TestApply_ErrorStatusStillRendered(t *testing.T) {
	c, logs := newTestController(t, &fakeChatter{}, Options{})
	resp := &mentari.ChatResponse{Text: "Oops, Mentari tripped.", StatusCode: 500, Error: "boom"}
	c.Apply(ReplyMsg{Seq: 1, Response: resp})

	last, _ := c.Transcript().Last()
	assert.Equal(t, "Oops, Mentari tripped.", last.Text)
	assert.Equal(t, 1, logs.FilterMessage("chat reply carried an error status").Len())
}

// =============================================================================
// RENDER ORDER
// =============================================================================

func TestApply_RenderOrder(t *testing.T) {
	body := `{
		"response": "Question 1",
		"card": {"type":"quiz_question","question_num":1,"total":2,"choices":[{"letter":"A","text":"Proton"},{"letter":"B","text":"Neutron"}]},
		"redirect_url": "/ai/quiz/start/1/",
		"conversation_stats": {"total_interactions": 3, "growth_indicators": "↑ 1 topics explored", "support_needed": "low"}
	}`
	chat := &fakeChatter{replies: map[string]string{"quiz on atoms": body}}
	c, _ := newTestController(t, chat, Options{
		ResolveURL: func(p string) string { return "http://localhost:8000" + p },
	})

	submit(t, c, "quiz on atoms")

	want := []transcript.Entry{
		turn(transcript.SenderPlayer, "quiz on atoms"),
		turn(transcript.SenderGuide, "Question 1"),
		{
			Kind: transcript.KindCard,
			Card: &transcript.CardView{Type: mentari.CardQuizQuestion, Title: "Question 1 of 2"},
			Actions: []transcript.Action{
				{Label: "A) Proton", Message: "answer: A"},
				{Label: "B) Neutron", Message: "answer: B"},
			},
		},
		{Kind: transcript.KindRedirect, Text: RedirectTitle, URL: "http://localhost:8000/ai/quiz/start/1/"},
	}
	if diff := cmp.Diff(want, c.Transcript().Entries(), ignoreVolatile); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Interactions: 3, Growth: ↑ 1 topics explored, Support: low", c.Stats().Text())
}

func TestApply_StatsReplacePrevious(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"one":   `{"response":"1","conversation_stats":{"total_interactions":1,"growth_indicators":"a","support_needed":"low"}}`,
		"two":   `{"response":"2"}`,
		"three": `{"response":"3","conversation_stats":{"total_interactions":3,"growth_indicators":"b","support_needed":"moderate"}}`,
	}}
	c, _ := newTestController(t, chat, Options{})

	submit(t, c, "one")
	assert.Equal(t, "Interactions: 1, Growth: a, Support: low", c.Stats().Text())

	submit(t, c, "two")
	assert.Equal(t, "Interactions: 1, Growth: a, Support: low", c.Stats().Text(), "absent stats leave the board alone")

	submit(t, c, "three")
	assert.Equal(t, "Interactions: 3, Growth: b, Support: moderate", c.Stats().Text())
	assert.Equal(t, 2, c.Stats().Updates())
}

func TestApply_NonScalarStatsStillRenderReply(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"hello": `{"response":"hi","conversation_stats":{"total_interactions":3,"growth_indicators":["math"],"support_needed":"low"}}`,
	}}
	c, logs := newTestController(t, chat, Options{})
	submit(t, c, "hello")

	last, ok := c.Transcript().Last()
	require.True(t, ok)
	assert.Equal(t, turn(transcript.SenderGuide, "hi"), last)
	assert.Equal(t, "Interactions: 3, Growth: math, Support: low", c.Stats().Text())
	assert.Zero(t, logs.FilterMessage("chat request failed").Len())
}

func TestApply_UnknownCardIgnoredSilently(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"pause": `{"response":"Paused.","card":{"type":"quiz_paused","topic":"atoms"}}`,
	}}
	c, logs := newTestController(t, chat, Options{})

	submit(t, c, "pause")

	assert.Equal(t, 2, c.Transcript().Len())
	assert.Equal(t, 0, logs.Len())
}

// =============================================================================
// CARDS & ACTIONS
// =============================================================================

func TestActivate_ChoiceSendsAnswer(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"quiz on atoms": `{"response":"Q1","card":{"type":"quiz_question","choices":[{"letter":"A","text":"Proton"},{"letter":"B","text":"Neutron"}]}}`,
		"answer: B":     `{"response":"Correct!"}`,
	}}
	c, _ := newTestController(t, chat, Options{})
	submit(t, c, "quiz on atoms")

	ids := c.Transcript().ActionIDs()
	require.Len(t, ids, 1)

	run(t, c, c.Activate(ids[0], 1))

	assert.Equal(t, []string{"quiz on atoms", "answer: B"}, chat.calls)
	turns := c.Transcript().Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, turn(transcript.SenderPlayer, "answer: B"), turns[2])
	assert.Equal(t, turn(transcript.SenderGuide, "Correct!"), turns[3])
}

func TestActivate_Missing(t *testing.T) {
	c, _ := newTestController(t, &fakeChatter{}, Options{})
	entry := c.Transcript().AddTurn(transcript.SenderGuide, "no actions")

	assert.Nil(t, c.Activate("does-not-exist", 0))
	assert.Nil(t, c.Activate(entry.ID, 0))
}

func TestActivate_RetryAfterCompletion(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"answer: A": `{"response":"Done","card":{"type":"quiz_complete","score":4,"total":5,"percentage":80}}`,
	}}
	c, _ := newTestController(t, chat, Options{RetryMessage: "quiz on chemistry"})
	submit(t, c, "answer: A")

	ids := c.Transcript().ActionIDs()
	require.Len(t, ids, 1)
	card, _ := c.Transcript().Get(ids[0])
	assert.Equal(t, []transcript.Action{{Label: RetryLabel, Message: "quiz on chemistry"}}, card.Actions)

	run(t, c, c.Activate(ids[0], 0))
	assert.Equal(t, "quiz on chemistry", chat.calls[1])
}

func TestSend_OverwritesInput(t *testing.T) {
	chat := &fakeChatter{}
	c, _ := newTestController(t, chat, Options{})
	c.Input().SetValue("half typed")

	run(t, c, c.Send("answer: C"))

	assert.Equal(t, []string{"answer: C"}, chat.calls)
	assert.Equal(t, "", c.Input().Value())
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestApply_ArrivalOrder(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"first":  `{"response":"reply to first"}`,
		"second": `{"response":"reply to second"}`,
	}}
	c, _ := newTestController(t, chat, Options{})

	c.Input().SetValue("first")
	cmdA := c.Submit()
	c.Input().SetValue("second")
	cmdB := c.Submit()
	assert.Equal(t, 2, c.InFlight())

	msgA, msgB := cmdA(), cmdB()
	c.Update(msgB)
	c.Update(msgA)

	want := []transcript.Entry{
		turn(transcript.SenderPlayer, "first"),
		turn(transcript.SenderPlayer, "second"),
		turn(transcript.SenderGuide, "reply to second"),
		turn(transcript.SenderGuide, "reply to first"),
	}
	if diff := cmp.Diff(want, c.Transcript().Entries(), ignoreVolatile); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, c.InFlight())
}

func TestApply_OrderedDelivery(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"first":  `{"response":"reply to first"}`,
		"second": `{"response":"reply to second"}`,
		"third":  `{"response":"reply to third"}`,
	}}
	c, _ := newTestController(t, chat, Options{Ordered: true})

	var cmds []tea.Cmd
	for _, m := range []string{"first", "second", "third"} {
		c.Input().SetValue(m)
		cmds = append(cmds, c.Submit())
	}
	msgs := []tea.Msg{cmds[0](), cmds[1](), cmds[2]()}

	c.Update(msgs[2])
	c.Update(msgs[1])
	assert.Equal(t, 3, c.Transcript().Len(), "replies wait for their predecessor")

	c.Update(msgs[0])
	c.Update(msgs[0])

	want := []transcript.Entry{
		turn(transcript.SenderPlayer, "first"),
		turn(transcript.SenderPlayer, "second"),
		turn(transcript.SenderPlayer, "third"),
		turn(transcript.SenderGuide, "reply to first"),
		turn(transcript.SenderGuide, "reply to second"),
		turn(transcript.SenderGuide, "reply to third"),
	}
	if diff := cmp.Diff(want, c.Transcript().Entries(), ignoreVolatile); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, c.InFlight())
}

func TestReconfigure_OrderingWaitsForIdle(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"first":  `{"response":"reply to first"}`,
		"second": `{"response":"reply to second"}`,
		"third":  `{"response":"reply to third"}`,
		"fourth": `{"response":"reply to fourth"}`,
	}}
	c, _ := newTestController(t, chat, Options{})

	c.Input().SetValue("first")
	cmdA := c.Submit()
	c.Input().SetValue("second")
	cmdB := c.Submit()

	c.Reconfigure(Options{Ordered: true})
	assert.False(t, c.Options().Ordered, "switch waits while replies are in flight")

	msgA, msgB := cmdA(), cmdB()
	c.Update(msgB)
	assert.False(t, c.Options().Ordered)
	c.Update(msgA)
	assert.True(t, c.Options().Ordered)

	c.Input().SetValue("third")
	cmdC := c.Submit()
	c.Input().SetValue("fourth")
	cmdD := c.Submit()
	msgC, msgD := cmdC(), cmdD()
	c.Update(msgD)
	c.Update(msgC)

	want := []transcript.Entry{
		turn(transcript.SenderPlayer, "first"),
		turn(transcript.SenderPlayer, "second"),
		turn(transcript.SenderGuide, "reply to second"),
		turn(transcript.SenderGuide, "reply to first"),
		turn(transcript.SenderPlayer, "third"),
		turn(transcript.SenderPlayer, "fourth"),
		turn(transcript.SenderGuide, "reply to third"),
		turn(transcript.SenderGuide, "reply to fourth"),
	}
	if diff := cmp.Diff(want, c.Transcript().Entries(), ignoreVolatile); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, c.InFlight())
}

func TestReconfigure_RetryMessageAndDefaults(t *testing.T) {
	chat := &fakeChatter{replies: map[string]string{
		"done": `{"response":"Done","card":{"type":"quiz_complete","score":1,"total":1,"percentage":100}}`,
	}}
	resolve := func(s string) string { return "http://example.test" + s }
	c, _ := newTestController(t, chat, Options{ResolveURL: resolve})

	c.Reconfigure(Options{RetryMessage: "quiz on molecules"})
	opts := c.Options()
	assert.Equal(t, "quiz on molecules", opts.RetryMessage)
	assert.Equal(t, "Student", opts.CharacterName)
	assert.Equal(t, "http://example.test/q/", opts.ResolveURL("/q/"))

	submit(t, c, "done")
	ids := c.Transcript().ActionIDs()
	require.Len(t, ids, 1)
	card, _ := c.Transcript().Get(ids[0])
	assert.Equal(t, "quiz on molecules", card.Actions[0].Message)
}

func TestSubmit_ConcurrentCommands(t *testing.T) {
	chat := &fakeChatter{}
	c, _ := newTestController(t, chat, Options{})

	var cmds []tea.Cmd
	for i := 0; i < 5; i++ {
		c.Input().SetValue("ping")
		cmds = append(cmds, c.Submit())
	}

	results := make(chan tea.Msg, len(cmds))
	var wg sync.WaitGroup
	for _, cmd := range cmds {
		wg.Add(1)
		go func(cmd tea.Cmd) {
			defer wg.Done()
			results <- cmd()
		}(cmd)
	}
	wg.Wait()
	close(results)

	for msg := range results {
		c.Update(msg)
	}
	assert.Equal(t, 10, c.Transcript().Len())
	assert.Equal(t, 5, chat.callCount())
}

// =============================================================================
// KEYS & REFLECTION
// =============================================================================

func TestHandleKey(t *testing.T) {
	chat := &fakeChatter{}
	c, _ := newTestController(t, chat, Options{})
	c.Input().SetValue("hi")

	assert.Nil(t, c.HandleKey("a"))
	assert.Nil(t, c.HandleKey("shift+enter"))
	assert.Equal(t, "hi", c.Input().Value())

	run(t, c, c.HandleKey("enter"))
	assert.Equal(t, []string{"hi"}, chat.calls)
}

func TestTriggerReflection(t *testing.T) {
	chat := &fakeChatter{appearance: "Mentari glows with quiet pride."}
	c, _ := newTestController(t, chat, Options{})

	run(t, c, c.TriggerReflection())

	assert.Equal(t, []string{"reflect:Student:reflecting"}, chat.calls)
	last, ok := c.Transcript().Last()
	require.True(t, ok)
	assert.Equal(t, transcript.KindReflection, last.Kind)
	assert.Equal(t, "Mentari glows with quiet pride.", last.Text)
}

func TestTriggerReflection_FailureIsSwallowed(t *testing.T) {
	chat := &fakeChatter{appearanceErr: errors.New("404")}
	c, logs := newTestController(t, chat, Options{CharacterName: "Ada", ReflectionAction: "pondering"})

	cmd := c.TriggerReflection()
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Nil(t, msg)
	c.Update(msg)

	assert.True(t, c.Transcript().IsEmpty())
	assert.Equal(t, []string{"reflect:Ada:pondering"}, chat.calls)
	assert.Equal(t, 1, logs.FilterMessage("reflection request failed").Len())
}
