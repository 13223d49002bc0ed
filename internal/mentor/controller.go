// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

// errEmptyReply is logged when a client returns neither a reply nor an error.
var errEmptyReply = errors.New("empty reply")

// Chatter is the subset of the chat service the controller needs.
// *mentari.Client satisfies it.
type Chatter interface {
	Chat(ctx context.Context, message string) (*mentari.ChatResponse, error)
	RandomAppearance(ctx context.Context, characterName, action string) (*mentari.Appearance, error)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options tune a Controller. The zero value is usable.
type Options struct {
	// CharacterName and ReflectionAction are sent with reflection requests
	// (defaults: "Student", "reflecting").
	CharacterName    string
	ReflectionAction string

	// RetryMessage is sent by the "Try Another Quiz" action
	// (default: "quiz on atoms").
	RetryMessage string

	// Ordered applies replies in submission order instead of arrival order.
	Ordered bool

	// ResolveURL turns a redirect path into a followable link.
	ResolveURL func(string) string

	// Logger receives request failures. Defaults to a no-op logger.
	Logger *zap.Logger
}

func (o *Options) fillDefaults() {
	if o.CharacterName == "" {
		o.CharacterName = "Student"
	}
	if o.ReflectionAction == "" {
		o.ReflectionAction = "reflecting"
	}
	if o.RetryMessage == "" {
		o.RetryMessage = DefaultRetry
	}
	if o.ResolveURL == nil {
		o.ResolveURL = func(s string) string { return s }
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the chat session controller. All methods must be called
// from the front end's UI loop; the commands it returns are the only work
// that runs elsewhere.
type Controller struct {
	client     Chatter
	transcript *transcript.Transcript
	input      Input
	opts       Options
	logger     *zap.Logger

	nextSeq  uint64
	inFlight int

	// Ordered mode: replies waiting for a predecessor, keyed by Seq.
	lastApplied uint64
	pending     map[uint64]ReplyMsg

	// orderedNext is a delivery mode change waiting for the controller to
	// go idle.
	orderedNext *bool
}

// New creates a controller over a fresh transcript.
func New(client Chatter, input Input, opts Options) *Controller {
	return NewWithTranscript(client, input, transcript.New(), opts)
}

// NewWithTranscript creates a controller that continues an existing
// transcript.
func NewWithTranscript(client Chatter, input Input, tr *transcript.Transcript, opts Options) *Controller {
	opts.fillDefaults()
	if input == nil {
		input = &Buffer{}
	}
	return &Controller{
		client:     client,
		transcript: tr,
		input:      input,
		opts:       opts,
		logger:     opts.Logger.Named("mentor"),
		pending:    make(map[uint64]ReplyMsg),
	}
}

// Options returns the controller's current options.
func (c *Controller) Options() Options { return c.opts }

// Reconfigure replaces the reflection, retry and ordering settings. Empty
// fields take their defaults; ResolveURL and Logger are kept. A change of
// delivery order waits until no replies are in flight.
func (c *Controller) Reconfigure(opts Options) {
	opts.ResolveURL = c.opts.ResolveURL
	opts.Logger = c.opts.Logger
	opts.fillDefaults()

	ordered := opts.Ordered
	opts.Ordered = c.opts.Ordered
	c.opts = opts

	if ordered == c.opts.Ordered {
		c.orderedNext = nil
		return
	}
	c.orderedNext = &ordered
	c.switchOrderWhenIdle()
}

func (c *Controller) switchOrderWhenIdle() {
	if c.orderedNext == nil || c.inFlight > 0 {
		return
	}
	c.opts.Ordered = *c.orderedNext
	c.orderedNext = nil
	c.lastApplied = c.nextSeq
	c.logger.Info("reply order changed", zap.Bool("ordered", c.opts.Ordered))
}

// Transcript returns the transcript the controller appends to.
func (c *Controller) Transcript() *transcript.Transcript { return c.transcript }

// Stats returns the stats board.
func (c *Controller) Stats() *transcript.StatsBoard { return c.transcript.Stats() }

// Input returns the input control.
func (c *Controller) Input() Input { return c.input }

// InFlight returns the number of submissions awaiting a reply.
func (c *Controller) InFlight() int { return c.inFlight }

// Busy reports whether any submission is awaiting a reply.
func (c *Controller) Busy() bool { return c.inFlight > 0 }

// =============================================================================
// OPERATIONS
// =============================================================================

// Submit sends the trimmed contents of the input control. Empty input is a
// no-op and returns nil. Otherwise the player's turn is appended and the
// input cleared before the returned command performs the request.
func (c *Controller) Submit() tea.Cmd {
	message := strings.TrimSpace(c.input.Value())
	if message == "" {
		return nil
	}

	c.transcript.AddTurn(transcript.SenderPlayer, message)
	c.input.Reset()

	c.nextSeq++
	c.inFlight++
	seq := c.nextSeq
	client := c.client

	c.logger.Debug("submitting message", zap.Uint64("seq", seq), zap.Int("length", len(message)))

	return func() tea.Msg {
		start := time.Now()
		resp, err := client.Chat(context.Background(), message)
		return ReplyMsg{
			Seq:      seq,
			Message:  message,
			Response: resp,
			Err:      err,
			Elapsed:  time.Since(start),
		}
	}
}

// Send places message in the input control and submits it.
func (c *Controller) Send(message string) tea.Cmd {
	c.input.SetValue(message)
	return c.Submit()
}

// HandleKey submits on "enter" and ignores every other key.
func (c *Controller) HandleKey(key string) tea.Cmd {
	if key == "enter" {
		return c.Submit()
	}
	return nil
}

// Activate runs the action at index on the entry with the given ID. It
// returns nil when the entry or action does not exist.
func (c *Controller) Activate(entryID string, index int) tea.Cmd {
	entry, ok := c.transcript.Get(entryID)
	if !ok {
		return nil
	}
	action, ok := entry.Action(index)
	if !ok {
		return nil
	}
	return c.Send(action.Message)
}

// TriggerReflection fetches a reflection notice in the background. Failures
// are logged and produce no message.
func (c *Controller) TriggerReflection() tea.Cmd {
	client := c.client
	name, action := c.opts.CharacterName, c.opts.ReflectionAction
	logger := c.logger

	return func() tea.Msg {
		app, err := client.RandomAppearance(context.Background(), name, action)
		if err != nil {
			logger.Error("reflection request failed", zap.Error(err))
			return nil
		}
		if app == nil {
			logger.Error("reflection request failed", zap.Error(errEmptyReply))
			return nil
		}
		return ReflectionMsg{Appearance: app.Appearance}
	}
}

// Update applies controller messages and ignores everything else.
func (c *Controller) Update(msg tea.Msg) {
	switch msg := msg.(type) {
	case ReplyMsg:
		c.Apply(msg)
	case ReflectionMsg:
		c.ApplyReflection(msg)
	}
}

// Apply renders a reply into the transcript.
func (c *Controller) Apply(msg ReplyMsg) {
	if !c.opts.Ordered {
		c.apply(msg)
		return
	}

	if msg.Seq <= c.lastApplied {
		c.logger.Warn("dropping duplicate reply", zap.Uint64("seq", msg.Seq))
		return
	}
	c.pending[msg.Seq] = msg
	for {
		next, ok := c.pending[c.lastApplied+1]
		if !ok {
			return
		}
		delete(c.pending, next.Seq)
		c.lastApplied = next.Seq
		c.apply(next)
	}
}

// ApplyReflection appends a reflection notice.
func (c *Controller) ApplyReflection(msg ReflectionMsg) {
	c.transcript.Append(transcript.NewReflection(msg.Appearance))
}

func (c *Controller) apply(msg ReplyMsg) {
	if c.inFlight > 0 {
		c.inFlight--
	}
	defer c.switchOrderWhenIdle()

	err := msg.Err
	if err == nil && msg.Response == nil {
		err = errEmptyReply
	}
	if err != nil {
		c.logger.Error("chat request failed",
			zap.Uint64("seq", msg.Seq),
			zap.Duration("elapsed", msg.Elapsed),
			zap.Error(err),
		)
		c.transcript.AddTurn(transcript.SenderGuide, FallbackText)
		return
	}

	resp := msg.Response
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("chat reply carried an error status",
			zap.Uint64("seq", msg.Seq),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", resp.Error),
		)
	}

	c.transcript.AddTurn(transcript.SenderGuide, resp.Text)

	if resp.Card != nil {
		if entry := RenderCard(resp.Card, c.opts.RetryMessage); entry != nil {
			c.transcript.Append(entry)
		}
	}

	if resp.RedirectURL != "" {
		c.transcript.Append(transcript.NewRedirect(RedirectTitle, c.opts.ResolveURL(resp.RedirectURL)))
	}

	if resp.Stats != nil {
		c.transcript.Stats().Replace(toStats(resp.Stats))
	}
}
