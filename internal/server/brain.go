// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
)

// Reply is the brain's answer to one message.
type Reply struct {
	Text        string
	Card        mentari.Card
	RedirectURL string

	event string // "started" or "completed"; feeds metrics
	topic string
}

// QuizState is the quiz in progress for a session.
type QuizState struct {
	Topic           *Topic
	Order           []int // indexes into Topic.Questions
	Index           int
	Score           int
	IncorrectStreak int
}

func (q *QuizState) current() (int, Question) {
	idx := q.Order[q.Index]
	return idx, q.Topic.Questions[idx]
}

// Brain answers chat messages for the stub: greetings, progress, and the
// quiz flow. It holds no per-session state itself.
type Brain struct {
	bank       *QuizBank
	quizLength int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBrain creates a brain over bank. seed 0 picks a random seed.
func NewBrain(bank *QuizBank, quizLength int, seed uint64) *Brain {
	if quizLength < 1 {
		quizLength = 5
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Brain{
		bank:       bank,
		quizLength: quizLength,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Bank returns the quiz bank.
func (b *Brain) Bank() *QuizBank { return b.bank }

var (
	greetings        = []string{"hello", "hi", "hey", "greetings", "howdy"}
	greetingPrefixes = []string{"good morning", "good afternoon", "good evening"}
	progressPhrases  = []string{"how am i doing", "my progress", "what should i learn", "my stats"}
	supportPhrases   = []string{"don't understand", "confused", "help me", "struggling", "difficult"}
	quizSignals      = []string{"quiz on", "test on", "start quiz on", "give me a quiz on"}
	quizTriggers     = []string{"start a new quiz", "start quiz", "take a quiz", "chemistry test", "quizzes"}
	quizStops        = []string{"end quiz", "quit quiz", "exit quiz", "stop quiz"}
	answerPrefixes   = []string{"my answer is", "answer is", "my answer", "answer:"}
)

// Respond answers message in the context of sess.
func (b *Brain) Respond(sess *Session, message string) Reply {
	original := strings.TrimSpace(message)
	msg := strings.ToLower(original)

	if sess.Quiz != nil {
		if containsAny(msg, quizStops) {
			return b.endQuiz(sess)
		}
		if isQuizAnswer(msg) {
			return b.answer(sess, original)
		}
	}

	switch {
	case isGreeting(msg):
		return Reply{Text: greetingText}
	case containsAny(msg, progressPhrases):
		return b.progress(sess)
	case strings.HasPrefix(msg, "open quiz"):
		return b.openQuiz(msg)
	case hasAnyPrefix(msg, quizSignals):
		if topic, ok := b.bank.Match(msg); ok {
			return b.startQuiz(sess, topic)
		}
		return b.topicList()
	case msg == "quiz" || containsAny(msg, quizTriggers):
		return b.topicList()
	case containsAny(msg, supportPhrases):
		return Reply{Text: encouragementText}
	default:
		return Reply{Text: helpText}
	}
}

// ============================================================================
// QUIZ FLOW
// ============================================================================

func (b *Brain) startQuiz(sess *Session, topic *Topic) Reply {
	if len(topic.Questions) == 0 {
		return Reply{Text: fmt.Sprintf("<p>No questions available for %s.</p>", html.EscapeString(topic.Title()))}
	}

	b.mu.Lock()
	order := b.rng.Perm(len(topic.Questions))
	b.mu.Unlock()
	if len(order) > b.quizLength {
		order = order[:b.quizLength]
	}

	sess.Quiz = &QuizState{Topic: topic, Order: order}

	intro := fmt.Sprintf("<p><strong>🎯 Starting quiz on %s</strong><br>You'll have %d questions. Good luck!</p>",
		html.EscapeString(topic.Title()), len(order))
	reply := b.questionReply(sess.Quiz)
	reply.Text = intro + reply.Text
	reply.event = "started"
	reply.topic = topic.Slug
	return reply
}

func (b *Brain) questionReply(q *QuizState) Reply {
	idx, question := q.current()
	choices := make([]mentari.Choice, len(question.Choices))
	for i, c := range question.Choices {
		choices[i] = mentari.Choice{Letter: string(rune('A' + i)), Text: c}
	}
	return Reply{
		Text: fmt.Sprintf("<p><strong>Question %d of %d:</strong> %s</p>",
			q.Index+1, len(q.Order), html.EscapeString(question.Text)),
		Card: mentari.QuizQuestion{
			QuestionID:  idx + 1,
			QuestionNum: q.Index + 1,
			Total:       len(q.Order),
			Choices:     choices,
		},
	}
}

func (b *Brain) answer(sess *Session, original string) Reply {
	q := sess.Quiz
	if q.Index >= len(q.Order) {
		return b.complete(sess, "")
	}

	_, question := q.current()
	choice, ok := parseChoice(original, question.Choices)
	if !ok {
		reply := b.questionReply(q)
		letters := make([]string, len(question.Choices))
		for i := range letters {
			letters[i] = string(rune('A' + i))
		}
		reply.Text = fmt.Sprintf("<p><em>Please answer with %s (or pick an option).</em></p>",
			strings.Join(letters, ", ")) + reply.Text
		return reply
	}

	var feedback strings.Builder
	if choice == question.Answer {
		q.Score++
		q.IncorrectStreak = 0
		feedback.WriteString("<p><strong>✅ Correct!</strong></p>")
	} else {
		q.IncorrectStreak++
		fmt.Fprintf(&feedback, "<p><strong>❌ Incorrect.</strong> The correct answer was: <strong>%s</strong></p>",
			html.EscapeString(question.Choices[question.Answer]))
	}
	if question.Explanation != "" {
		fmt.Fprintf(&feedback, "<p><strong>📚 Explanation:</strong> %s</p>", html.EscapeString(question.Explanation))
	}

	q.Index++
	if q.Index >= len(q.Order) {
		return b.complete(sess, feedback.String())
	}

	next := b.questionReply(q)
	next.Text = feedback.String() + next.Text
	return next
}

func (b *Brain) complete(sess *Session, feedback string) Reply {
	q := sess.Quiz
	sess.Quiz = nil

	total := len(q.Order)
	var pct float64
	if total > 0 {
		pct = float64(q.Score) / float64(total) * 100
	}
	sess.Attempts = append(sess.Attempts, QuizAttempt{
		Topic:      q.Topic.Title(),
		Score:      q.Score,
		Total:      total,
		Percentage: pct,
	})

	var emoji, verdict string
	switch {
	case pct >= 80:
		emoji, verdict = "🏆", "Excellent work! You've mastered this topic!"
	case pct >= 60:
		emoji, verdict = "😊", "Good job! You're getting there!"
	default:
		emoji, verdict = "📚", "Keep practicing! You'll improve with time!"
	}

	var sb strings.Builder
	sb.WriteString(feedback)
	fmt.Fprintf(&sb, "<h4>%s Quiz Complete!</h4>", emoji)
	fmt.Fprintf(&sb, "<p>Topic: <strong>%s</strong></p>", html.EscapeString(q.Topic.Title()))
	fmt.Fprintf(&sb, "<p>Your score: <strong>%d/%d</strong> (%.0f%%)</p>", q.Score, total, math.Round(pct))
	fmt.Fprintf(&sb, "<p>%s</p>", verdict)
	if q.IncorrectStreak >= 2 {
		sb.WriteString("<p><strong>💡 Keep going!</strong> Mistakes are part of learning. Want to try a related topic?</p>")
	}

	return Reply{
		Text: sb.String(),
		Card: mentari.QuizComplete{
			Score:      float64(q.Score),
			Total:      float64(total),
			Percentage: pct,
			Topic:      q.Topic.Title(),
		},
		event: "completed",
		topic: q.Topic.Slug,
	}
}

func (b *Brain) endQuiz(sess *Session) Reply {
	q := sess.Quiz
	sess.Quiz = nil
	return Reply{Text: fmt.Sprintf(
		"<p><strong>Quiz ended.</strong> You answered %d of %d questions on %s and got %d right. Say 'quiz on %s' to try again.</p>",
		q.Index, len(q.Order), html.EscapeString(q.Topic.Title()), q.Score, html.EscapeString(q.Topic.Name))}
}

func (b *Brain) openQuiz(msg string) Reply {
	topic, ok := b.bank.Match(msg)
	if !ok {
		return b.topicList()
	}
	return Reply{
		Text:        fmt.Sprintf("<p>Your <strong>%s</strong> quiz page is ready.</p>", html.EscapeString(topic.Title())),
		RedirectURL: QuizPagePath(topic.Slug),
	}
}

// QuizPagePath is the stub's quiz page for a topic.
func QuizPagePath(slug string) string {
	return "/quiz/" + slug + "/"
}

type topicListCard struct {
	Type   string      `json:"type"`
	Topics []topicItem `json:"topics"`
}

type topicItem struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func (b *Brain) topicList() Reply {
	var sb strings.Builder
	sb.WriteString("<p><strong>Available quiz topics:</strong></p><ul>")
	card := topicListCard{Type: "topic_list"}
	for _, t := range b.bank.Topics {
		if len(t.Questions) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(t.Title()))
		card.Topics = append(card.Topics, topicItem{Slug: t.Slug, Title: t.Title()})
	}
	sb.WriteString("</ul><p>Try saying 'quiz on [topic name]'.</p>")

	reply := Reply{Text: sb.String()}
	if raw, err := json.Marshal(card); err == nil {
		reply.Card = mentari.UnknownCard{Type: card.Type, Raw: raw}
	}
	return reply
}

func (b *Brain) progress(sess *Session) Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<p>You've sent <strong>%d</strong> messages and explored <strong>%d</strong> topics.</p>",
		sess.Interactions, len(sess.Topics))
	if len(sess.Attempts) == 0 {
		sb.WriteString("<p>No quizzes yet. Try 'quiz on atoms' to test yourself.</p>")
		return Reply{Text: sb.String()}
	}

	sb.WriteString("<p><strong>Recent quizzes:</strong></p><ul>")
	start := len(sess.Attempts) - 3
	if start < 0 {
		start = 0
	}
	for _, a := range sess.Attempts[start:] {
		fmt.Fprintf(&sb, "<li>%s: %d/%d (%.0f%%)</li>", html.EscapeString(a.Topic), a.Score, a.Total, math.Round(a.Percentage))
	}
	sb.WriteString("</ul>")
	return Reply{Text: sb.String()}
}

// ============================================================================
// MESSAGE CLASSIFIERS
// ============================================================================

func isGreeting(msg string) bool {
	if hasAnyPrefix(msg, greetingPrefixes) {
		return true
	}
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ".,!?")
	for _, g := range greetings {
		if first == g {
			return true
		}
	}
	return false
}

func isQuizAnswer(msg string) bool {
	if len(msg) == 1 && msg[0] >= 'a' && msg[0] <= 'z' {
		return true
	}
	return containsAny(msg, answerPrefixes)
}

// parseChoice resolves an answer to a choice index: a letter, optionally
// after an "answer:" style prefix, or a fragment of the choice text.
func parseChoice(answer string, choices []string) (int, bool) {
	a := strings.ToLower(strings.TrimSpace(answer))
	for _, p := range answerPrefixes {
		if strings.HasPrefix(a, p) {
			a = strings.TrimSpace(strings.TrimPrefix(a, p))
			break
		}
	}
	a = strings.Trim(a, ".)")
	if a == "" {
		return 0, false
	}

	if len(a) == 1 && a[0] >= 'a' && a[0] <= 'z' {
		idx := int(a[0] - 'a')
		return idx, idx < len(choices)
	}
	for i, c := range choices {
		if strings.Contains(strings.ToLower(c), a) {
			return i, true
		}
	}
	return 0, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ============================================================================
// CANNED TEXT
// ============================================================================

const greetingText = "<p><strong>Hello!</strong> I'm Mentari, your personal learning companion. 🌟</p>" +
	"<p>I can help you with:</p><ul>" +
	"<li>📝 Interactive quizzes</li>" +
	"<li>🧪 Chemistry concepts</li>" +
	"<li>📊 Tracking your learning progress</li>" +
	"</ul><p><em>Try saying \"Quiz on atoms\".</em></p>"

const encouragementText = "<p><strong>That's okay!</strong> Confusion is where learning starts. 💪</p>" +
	"<p>Tell me which part feels tricky, or warm up with a short quiz: try 'quiz on atoms'.</p>"

const helpText = "<p>I'm not sure how to help with that yet.</p>" +
	"<p>Try one of these:</p><ul>" +
	"<li>quiz on atoms</li>" +
	"<li>quiz on periodic table</li>" +
	"<li>how am I doing?</li>" +
	"</ul>"
