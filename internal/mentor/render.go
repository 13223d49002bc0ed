// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
)

// Fixed display strings.
const (
	FallbackText     = "Mentari Mentor is momentarily gathering wisdom…"
	RedirectTitle    = "📝 Quiz Ready!"
	RedirectLinkText = "👉 Start your quiz"
	RetryLabel       = "Try Another Quiz"
	DefaultRetry     = "quiz on atoms"
)

// Score tier emoji.
const (
	EmojiTrophy  = "🏆"
	EmojiPleased = "😊"
	EmojiStudy   = "📚"
)

// TierEmoji picks the emoji for a raw quiz percentage.
func TierEmoji(percentage float64) string {
	switch {
	case percentage >= 80:
		return EmojiTrophy
	case percentage >= 60:
		return EmojiPleased
	default:
		return EmojiStudy
	}
}

// FormatPercent rounds a percentage for display, e.g. 79.6 -> "80%".
func FormatPercent(percentage float64) string {
	return fmt.Sprintf("%d%%", int64(math.Round(percentage)))
}

// FormatScore renders "score/total" with integral values printed bare.
func FormatScore(score, total float64) string {
	return formatNumber(score) + "/" + formatNumber(total)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderCard converts a card into a transcript entry with its actions bound
// to it. Cards of unknown type yield nil.
func RenderCard(card mentari.Card, retryMessage string) *transcript.Entry {
	if retryMessage == "" {
		retryMessage = DefaultRetry
	}

	switch c := card.(type) {
	case mentari.QuizQuestion:
		view := transcript.CardView{Type: mentari.CardQuizQuestion}
		if c.QuestionNum > 0 && c.Total > 0 {
			view.Title = fmt.Sprintf("Question %d of %d", c.QuestionNum, c.Total)
		}
		actions := make([]transcript.Action, 0, len(c.Choices))
		for _, choice := range c.Choices {
			actions = append(actions, transcript.Action{
				Label:   mentari.ChoiceLabel(choice),
				Message: mentari.AnswerMessage(choice.Letter),
			})
		}
		return transcript.NewCard(view, actions...)

	case mentari.QuizComplete:
		view := transcript.CardView{
			Type:    mentari.CardQuizComplete,
			Title:   "Quiz Complete!",
			Score:   FormatScore(c.Score, c.Total),
			Percent: FormatPercent(c.Percentage),
			Emoji:   TierEmoji(c.Percentage),
			Topic:   c.Topic,
		}
		return transcript.NewCard(view, transcript.Action{Label: RetryLabel, Message: retryMessage})

	default:
		return nil
	}
}

// toStats converts the wire stats to their display form.
func toStats(s *mentari.ConversationStats) transcript.Stats {
	return transcript.Stats{
		TotalInteractions: string(s.TotalInteractions),
		GrowthIndicators:  string(s.GrowthIndicators),
		SupportNeeded:     string(s.SupportNeeded),
	}
}
