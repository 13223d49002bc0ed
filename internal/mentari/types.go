// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentari

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// DefaultContext identifies the calling surface to the chat service.
	DefaultContext = "GeNiUS EdTech Chat"

	// PlaceholderText is shown when a reply carries no usable text.
	PlaceholderText = "Mentari is thinking..."
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the request body for POST /ai/chat/api/.
type ChatRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

// =============================================================================
// RESPONSE TEXT
// =============================================================================

// TextShape records which representation the "response" field arrived in.
type TextShape int

const (
	ShapeMissing TextShape = iota // absent, null, or no usable text
	ShapeString                   // "response": "..."
	ShapeObject                   // "response": {"text": "..."}
)

// ResponseText is the "response" field of a chat reply. The service sends
// either a plain string or an object with a text field; both are resolved to
// one string when decoded.
type ResponseText struct {
	Shape TextShape
	Text  string
}

// NewResponseText returns a string-shaped ResponseText.
func NewResponseText(text string) ResponseText {
	return ResponseText{Shape: ShapeString, Text: text}
}

// String returns the display text, falling back to PlaceholderText.
func (r ResponseText) String() string {
	if r.Shape == ShapeMissing {
		return PlaceholderText
	}
	return r.Text
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ResponseText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = ResponseText{}
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ResponseText{Shape: ShapeString, Text: s}
	case '{':
		var obj struct {
			Text json.RawMessage `json:"text"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if text, ok := truthyText(obj.Text); ok {
			*r = ResponseText{Shape: ShapeObject, Text: text}
		}
	}
	return nil
}

// truthyText returns the display form of an object's text value. Strings,
// numbers and booleans count; empty, zero, false, null and nested values do
// not.
func truthyText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '{' || raw[0] == '[' {
		return "", false
	}
	var s Scalar
	if err := s.UnmarshalJSON(raw); err != nil {
		return "", false
	}
	text := string(s)
	if raw[0] != '"' {
		if f, err := strconv.ParseFloat(text, 64); (err == nil && f == 0) || text == "false" {
			return "", false
		}
	}
	return text, text != ""
}

// MarshalJSON implements json.Marshaler. Object-shaped text round-trips as
// an object; everything else is written as a string.
func (r ResponseText) MarshalJSON() ([]byte, error) {
	if r.Shape == ShapeObject {
		return json.Marshal(struct {
			Text string `json:"text"`
		}{r.Text})
	}
	return json.Marshal(r.String())
}

// =============================================================================
// CONVERSATION STATS
// =============================================================================

// Scalar is a display-only stats value. The service mixes numbers and
// strings in the stats block, so any value is kept as its text form: arrays
// join their elements with commas and objects keep their compact JSON.
type Scalar string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
	case data[0] == '[':
		var items []Scalar
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = string(item)
		}
		*s = Scalar(strings.Join(parts, ","))
	case data[0] == '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*s = Scalar(buf.String())
	default:
		*s = Scalar(data)
	}
	return nil
}

// MarshalJSON writes numbers and booleans bare and everything else quoted.
func (s Scalar) MarshalJSON() ([]byte, error) {
	str := string(s)
	if _, err := strconv.ParseFloat(str, 64); err == nil {
		return []byte(str), nil
	}
	if str == "true" || str == "false" {
		return []byte(str), nil
	}
	return json.Marshal(str)
}

// ConversationStats is the server's running view of the conversation. The
// client never accumulates it; each reply replaces the previous one.
type ConversationStats struct {
	TotalInteractions Scalar `json:"total_interactions"`
	GrowthIndicators  Scalar `json:"growth_indicators"`
	SupportNeeded     Scalar `json:"support_needed"`
}

// =============================================================================
// CHAT RESPONSE
// =============================================================================

// ChatResponse is the decoded reply of POST /ai/chat/api/.
type ChatResponse struct {
	// Response is the reply text variant; Text is its resolved form.
	Response ResponseText
	Text     string

	// Card is nil when the reply carries no card.
	Card Card

	RedirectURL string
	Stats       *ConversationStats

	// Error is the staff-only diagnostic some failures carry.
	Error string

	// StatusCode is the HTTP status the reply arrived with.
	StatusCode int
}

type wireChatResponse struct {
	Response          ResponseText       `json:"response"`
	Card              json.RawMessage    `json:"card,omitempty"`
	RedirectURL       string             `json:"redirect_url,omitempty"`
	ConversationStats *ConversationStats `json:"conversation_stats,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	var wire wireChatResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	card, err := DecodeCard(wire.Card)
	if err != nil {
		return err
	}

	*r = ChatResponse{
		Response:    wire.Response,
		Text:        wire.Response.String(),
		Card:        card,
		RedirectURL: wire.RedirectURL,
		Stats:       wire.ConversationStats,
		Error:       wire.Error,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r ChatResponse) MarshalJSON() ([]byte, error) {
	wire := wireChatResponse{
		Response:          r.Response,
		RedirectURL:       r.RedirectURL,
		ConversationStats: r.Stats,
		Error:             r.Error,
	}
	if r.Card != nil {
		raw, err := json.Marshal(r.Card)
		if err != nil {
			return nil, err
		}
		wire.Card = raw
	}
	return json.Marshal(wire)
}

// =============================================================================
// APPEARANCE
// =============================================================================

// Appearance is the reply of GET /mentari/random_appearance.
type Appearance struct {
	Appearance string `json:"appearance"`
}
