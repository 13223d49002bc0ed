// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentari

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Card type tags as sent by the service.
const (
	CardQuizQuestion = "quiz_question"
	CardQuizComplete = "quiz_complete"
)

// Card is a structured payload attached to a chat reply. The concrete type
// is one of QuizQuestion, QuizComplete or UnknownCard.
type Card interface {
	CardType() string
}

// Choice is one selectable answer of a quiz question.
type Choice struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// QuizQuestion presents answer choices for the current question.
type QuizQuestion struct {
	QuestionID  int      `json:"question_id,omitempty"`
	QuestionNum int      `json:"question_num,omitempty"`
	Total       int      `json:"total,omitempty"`
	Choices     []Choice `json:"choices"`
}

// CardType implements Card.
func (QuizQuestion) CardType() string { return CardQuizQuestion }

// MarshalJSON adds the type tag.
func (q QuizQuestion) MarshalJSON() ([]byte, error) {
	type plain QuizQuestion
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{CardQuizQuestion, plain(q)})
}

// QuizComplete summarizes a finished quiz.
type QuizComplete struct {
	Score      float64 `json:"score"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Topic      string  `json:"topic,omitempty"`
}

// CardType implements Card.
func (QuizComplete) CardType() string { return CardQuizComplete }

// MarshalJSON adds the type tag.
func (c QuizComplete) MarshalJSON() ([]byte, error) {
	type plain QuizComplete
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{CardQuizComplete, plain(c)})
}

// UnknownCard holds a card whose type this client does not render.
type UnknownCard struct {
	Type string
	Raw  json.RawMessage
}

// CardType implements Card.
func (u UnknownCard) CardType() string { return u.Type }

// MarshalJSON writes the original payload back out.
func (u UnknownCard) MarshalJSON() ([]byte, error) {
	if len(u.Raw) == 0 {
		return json.Marshal(struct {
			Type string `json:"type"`
		}{u.Type})
	}
	return u.Raw, nil
}

// DecodeCard decodes the "card" field of a chat reply. A missing or null
// card yields nil. Payloads that are not objects, or whose fields do not fit
// the tagged type, decode as UnknownCard so a malformed card never fails the
// whole reply.
func DecodeCard(raw json.RawMessage) (Card, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var tag struct {
		Type string `json:"type"`
	}
	if raw[0] != '{' || json.Unmarshal(raw, &tag) != nil {
		return UnknownCard{Raw: append(json.RawMessage(nil), raw...)}, nil
	}

	unknown := UnknownCard{Type: tag.Type, Raw: append(json.RawMessage(nil), raw...)}

	switch tag.Type {
	case CardQuizQuestion:
		var q QuizQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			return unknown, nil
		}
		return q, nil
	case CardQuizComplete:
		var c QuizComplete
		if err := json.Unmarshal(raw, &c); err != nil {
			return unknown, nil
		}
		return c, nil
	default:
		return unknown, nil
	}
}

// ChoiceLabel returns the display label of a choice, e.g. "B) Neutron".
func ChoiceLabel(c Choice) string {
	return c.Letter + ") " + c.Text
}

// AnswerMessage returns the chat message that answers with the given letter.
func AnswerMessage(letter string) string {
	return "answer: " + strings.TrimSpace(letter)
}
