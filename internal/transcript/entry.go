// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER
// =============================================================================

// Sender identifies who spoke a turn.
type Sender string

const (
	SenderPlayer Sender = "player"
	SenderGuide  Sender = "guide"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// Label returns the display label for the sender.
func (s Sender) Label() string {
	switch s {
	case SenderPlayer:
		return "You"
	case SenderGuide:
		return "Mentari"
	default:
		return string(s)
	}
}

// =============================================================================
// ENTRY KIND
// =============================================================================

// Kind is the variant of an entry.
type Kind string

const (
	KindTurn       Kind = "turn"
	KindCard       Kind = "card"
	KindRedirect   Kind = "redirect"
	KindReflection Kind = "reflection"
)

// =============================================================================
// ACTIONS & CARDS
// =============================================================================

// Action is a selectable control on a card. Activating it sends Message as
// if the player had typed it.
type Action struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// CardView is the render-ready form of a card.
type CardView struct {
	Type string `json:"type"`

	// Title is a heading such as "Question 2 of 5"; may be empty.
	Title string `json:"title,omitempty"`

	// Summary fields, set for completed quizzes.
	Score   string `json:"score,omitempty"`   // "4/5"
	Percent string `json:"percent,omitempty"` // "80%"
	Emoji   string `json:"emoji,omitempty"`
	Topic   string `json:"topic,omitempty"`
}

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one element of the transcript.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Turns
	Sender Sender `json:"sender,omitempty"`
	Text   string `json:"text,omitempty"`

	// Cards
	Card    *CardView `json:"card,omitempty"`
	Actions []Action  `json:"actions,omitempty"`

	// Redirects
	URL string `json:"url,omitempty"`
}

// NewTurn creates a dialogue turn.
func NewTurn(sender Sender, text string) *Entry {
	return newEntry(&Entry{Kind: KindTurn, Sender: sender, Text: text})
}

// NewCard creates a card entry with its actions.
func NewCard(view CardView, actions ...Action) *Entry {
	return newEntry(&Entry{Kind: KindCard, Card: &view, Actions: actions})
}

// NewRedirect creates a redirect prompt pointing at url.
func NewRedirect(text, url string) *Entry {
	return newEntry(&Entry{Kind: KindRedirect, Text: text, URL: url})
}

// NewReflection creates a reflection notice.
func NewReflection(text string) *Entry {
	return newEntry(&Entry{Kind: KindReflection, Text: text})
}

func newEntry(e *Entry) *Entry {
	e.ID = uuid.NewString()
	e.Timestamp = time.Now()
	return e
}

// Action returns the action at index i, if any.
func (e *Entry) Action(i int) (Action, bool) {
	if e == nil || i < 0 || i >= len(e.Actions) {
		return Action{}, false
	}
	return e.Actions[i], true
}

// IsTurn reports whether the entry is a turn from sender.
func (e *Entry) IsTurn(sender Sender) bool {
	return e.Kind == KindTurn && e.Sender == sender
}

// clone returns a deep copy so callers cannot mutate logged entries.
func (e *Entry) clone() Entry {
	out := *e
	if e.Card != nil {
		card := *e.Card
		out.Card = &card
	}
	if e.Actions != nil {
		out.Actions = append([]Action(nil), e.Actions...)
	}
	return out
}
