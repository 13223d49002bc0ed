// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed quizbank.json
var quizBankJSON []byte

// Question is one multiple-choice question. Answer indexes Choices.
type Question struct {
	Text        string   `json:"text"`
	Choices     []string `json:"choices"`
	Answer      int      `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Topic is a named set of questions.
type Topic struct {
	Slug      string     `json:"slug"`
	Name      string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Title returns the display title, e.g. "Periodic Table".
func (t *Topic) Title() string {
	// Casers carry state; one per call keeps Title safe across handlers.
	return cases.Title(language.English).String(t.Name)
}

// QuizBank is the fixed set of quiz topics the stub serves.
type QuizBank struct {
	Topics []*Topic `json:"topics"`
}

// DefaultQuizBank parses the embedded bank.
func DefaultQuizBank() *QuizBank {
	bank, err := ParseQuizBank(quizBankJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded quiz bank: %v", err))
	}
	return bank
}

// ParseQuizBank decodes and checks a bank.
func ParseQuizBank(data []byte) (*QuizBank, error) {
	var bank QuizBank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, err
	}
	for _, t := range bank.Topics {
		if t.Slug == "" || t.Name == "" {
			return nil, fmt.Errorf("topic missing slug or title")
		}
		for i, q := range t.Questions {
			if len(q.Choices) < 2 || len(q.Choices) > 26 {
				return nil, fmt.Errorf("%s question %d: need 2 to 26 choices", t.Slug, i+1)
			}
			if q.Answer < 0 || q.Answer >= len(q.Choices) {
				return nil, fmt.Errorf("%s question %d: answer out of range", t.Slug, i+1)
			}
		}
	}
	return &bank, nil
}

// Topic returns the topic with the given slug.
func (b *QuizBank) Topic(slug string) (*Topic, bool) {
	for _, t := range b.Topics {
		if t.Slug == slug {
			return t, true
		}
	}
	return nil, false
}

var matchStopWords = map[string]bool{
	"quiz": true, "on": true, "test": true, "me": true, "about": true, "the": true,
	"a": true, "an": true, "give": true, "start": true, "open": true, "take": true,
}

// Match finds the topic a request names. Any content word found inside a
// topic title matches, as does any title word longer than three letters
// found in the message.
func (b *QuizBank) Match(message string) (*Topic, bool) {
	lower := strings.ToLower(message)
	var content []string
	for _, w := range strings.Fields(lower) {
		w = strings.Trim(w, ".,!?\"'")
		if w != "" && !matchStopWords[w] {
			content = append(content, w)
		}
	}

	for _, t := range b.Topics {
		name := strings.ToLower(t.Name)
		for _, w := range content {
			if strings.Contains(name, w) {
				return t, true
			}
		}
		for _, tw := range strings.Fields(name) {
			if len(tw) > 3 && strings.Contains(lower, tw) {
				return t, true
			}
		}
	}
	return nil, false
}

// Titles returns every topic title in bank order.
func (b *QuizBank) Titles() []string {
	out := make([]string, len(b.Topics))
	for i, t := range b.Topics {
		out[i] = t.Title()
	}
	return out
}
