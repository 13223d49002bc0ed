// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
)

// =============================================================================
// HELPERS
// =============================================================================

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	if opts.QuizLength == 0 {
		opts.QuizLength = 5
	}
	opts.Logger = zaptest.NewLogger(t)
	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func newClient(t *testing.T, ts *httptest.Server) *mentari.Client {
	t.Helper()
	c, err := mentari.NewClientWithConfig(&mentari.ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)
	require.NoError(t, c.Prime(context.Background()))
	return c
}

func chat(t *testing.T, c *mentari.Client, msg string) *mentari.ChatResponse {
	t.Helper()
	resp, err := c.Chat(context.Background(), msg)
	require.NoError(t, err)
	return resp
}

// correctLetter looks the asked question up in the bank.
func correctLetter(t *testing.T, s *Server, slug string, card mentari.Card) string {
	t.Helper()
	q, ok := card.(mentari.QuizQuestion)
	require.True(t, ok, "expected quiz_question card, got %T", card)
	topic, ok := s.Brain().Bank().Topic(slug)
	require.True(t, ok)
	question := topic.Questions[q.QuestionID-1]
	return string(rune('A' + question.Answer))
}

func wrongLetter(correct string) string {
	if correct == "A" {
		return "B"
	}
	return "A"
}

// =============================================================================
// CHAT PAGE AND API
// =============================================================================

func TestChatPageSetsCookies(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + mentari.ChatPagePath)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	names := map[string]string{}
	for _, c := range resp.Cookies() {
		names[c.Name] = c.Value
	}
	assert.Len(t, names[mentari.CSRFCookieName], 32)
	assert.Len(t, names[SessionCookieName], 32)
}

func TestGreetingAndStats(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	c := newClient(t, ts)

	resp := chat(t, c, "Hello there")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Text, "I'm Mentari")
	assert.Nil(t, resp.Card)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, mentari.Scalar("1"), resp.Stats.TotalInteractions)
	assert.Equal(t, mentari.Scalar("↑ 0 topics explored"), resp.Stats.GrowthIndicators)
	assert.Equal(t, mentari.Scalar("low"), resp.Stats.SupportNeeded)

	resp = chat(t, c, "tell me about chemistry and math")
	assert.Equal(t, mentari.Scalar("2"), resp.Stats.TotalInteractions)
	assert.Equal(t, mentari.Scalar("↑ 2 topics explored"), resp.Stats.GrowthIndicators)
}

func TestSupportNeededTurnsModerate(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	c := newClient(t, ts)

	var resp *mentari.ChatResponse
	for i := 0; i < 9; i++ {
		resp = chat(t, c, "hmm")
	}
	assert.Equal(t, mentari.Scalar("low"), resp.Stats.SupportNeeded)

	resp = chat(t, c, "hmm")
	assert.Equal(t, mentari.Scalar("10"), resp.Stats.TotalInteractions)
	assert.Equal(t, mentari.Scalar("moderate"), resp.Stats.SupportNeeded)
}

func TestSessionsAreIsolated(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	a := newClient(t, ts)
	b := newClient(t, ts)

	chat(t, a, "one")
	chat(t, a, "two")
	resp := chat(t, b, "one")
	assert.Equal(t, mentari.Scalar("1"), resp.Stats.TotalInteractions)
}

func TestFullQuizAllCorrect(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	c := newClient(t, ts)

	resp := chat(t, c, "quiz on atoms")
	assert.Contains(t, resp.Text, "Starting quiz on Atoms")

	for i := 1; i <= 5; i++ {
		q, ok := resp.Card.(mentari.QuizQuestion)
		require.True(t, ok, "question %d", i)
		assert.Equal(t, i, q.QuestionNum)
		assert.Equal(t, 5, q.Total)
		require.Len(t, q.Choices, 4)
		assert.Equal(t, "A", q.Choices[0].Letter)
		assert.Equal(t, "D", q.Choices[3].Letter)

		resp = chat(t, c, mentari.AnswerMessage(correctLetter(t, s, "atoms", resp.Card)))
		assert.Contains(t, resp.Text, "Correct!")
	}

	done, ok := resp.Card.(mentari.QuizComplete)
	require.True(t, ok, "expected quiz_complete, got %T", resp.Card)
	assert.Equal(t, 5.0, done.Score)
	assert.Equal(t, 5.0, done.Total)
	assert.Equal(t, 100.0, done.Percentage)
	assert.Equal(t, "Atoms", done.Topic)
	assert.Contains(t, resp.Text, "🏆 Quiz Complete!")
	assert.Equal(t, mentari.Scalar("6"), resp.Stats.TotalInteractions)

	progress := chat(t, c, "how am I doing?")
	assert.Contains(t, progress.Text, "Atoms: 5/5 (100%)")
}

func TestQuizWrongAnswersAndSingleLetters(t *testing.T) {
	s, ts := newTestServer(t, Options{QuizLength: 2})
	c := newClient(t, ts)

	resp := chat(t, c, "quiz on molecules")
	resp = chat(t, c, strings.ToLower(wrongLetter(correctLetter(t, s, "molecules", resp.Card))))
	assert.Contains(t, resp.Text, "Incorrect.")
	assert.Contains(t, resp.Text, "Explanation:")

	resp = chat(t, c, wrongLetter(correctLetter(t, s, "molecules", resp.Card)))
	done, ok := resp.Card.(mentari.QuizComplete)
	require.True(t, ok)
	assert.Equal(t, 0.0, done.Score)
	assert.Equal(t, 2.0, done.Total)
	assert.Equal(t, 0.0, done.Percentage)
	assert.Contains(t, resp.Text, "📚 Quiz Complete!")
	assert.Contains(t, resp.Text, "Keep going!")
}

func TestQuizUnrecognizedAnswerRepeatsQuestion(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	c := newClient(t, ts)

	first := chat(t, c, "quiz on atoms")
	again := chat(t, c, "answer: Z")

	assert.Contains(t, again.Text, "Please answer with A, B, C, D")
	assert.Equal(t, first.Card, again.Card)
}

func TestEndQuiz(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	c := newClient(t, ts)

	resp := chat(t, c, "quiz on periodic table")
	assert.Contains(t, resp.Text, "Periodic Table")
	chat(t, c, mentari.AnswerMessage(correctLetter(t, s, "periodic-table", resp.Card)))

	resp = chat(t, c, "end quiz")
	assert.Contains(t, resp.Text, "You answered 1 of 5 questions on Periodic Table and got 1 right")
	assert.Nil(t, resp.Card)

	// No quiz is active now, so a bare letter is just chatter.
	resp = chat(t, c, "b")
	assert.Nil(t, resp.Card)
}

func TestQuizTopicList(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	c := newClient(t, ts)

	for _, msg := range []string{"quiz", "start a new quiz", "quiz on astrophysics"} {
		resp := chat(t, c, msg)
		assert.Contains(t, resp.Text, "Available quiz topics", msg)
		assert.Contains(t, resp.Text, "<li>Periodic Table</li>", msg)

		card, ok := resp.Card.(mentari.UnknownCard)
		require.True(t, ok, msg)
		assert.Equal(t, "topic_list", card.Type)
	}
}

func TestOpenQuizRedirects(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	c := newClient(t, ts)

	resp := chat(t, c, "open quiz on periodic table")
	assert.Equal(t, "/quiz/periodic-table/", resp.RedirectURL)

	page, err := http.Get(c.Resolve(resp.RedirectURL))
	require.NoError(t, err)
	defer page.Body.Close()
	body, _ := io.ReadAll(page.Body)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(body), "<h1>Periodic Table Quiz</h1>")

	missing, err := http.Get(ts.URL + "/quiz/nope/")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestChatAPIBadRequests(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + mentari.ChatAPIPath)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, string(body))

	resp, err = http.Post(ts.URL+mentari.ChatAPIPath, "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"response":"Invalid message format."}`, string(body))

	resp, err = http.Post(ts.URL+mentari.ChatAPIPath, "application/json", strings.NewReader(`{"message":"   "}`))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"response":"Please enter a message."}`, string(body))
}

// =============================================================================
// CSRF AND RATE LIMITING
// =============================================================================

func TestCSRFEnforcement(t *testing.T) {
	_, ts := newTestServer(t, Options{EnforceCSRF: true})

	resp, err := http.Post(ts.URL+mentari.ChatAPIPath, "application/json", strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A primed client echoes the cookie in the header.
	c := newClient(t, ts)
	require.NotEmpty(t, c.CSRFToken())
	reply := chat(t, c, "hi")
	assert.Equal(t, http.StatusOK, reply.StatusCode)

	// An unprimed client still gets a readable reply, just a 403 one.
	raw, err := mentari.NewClientWithConfig(&mentari.ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)
	reply, err = raw.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, reply.StatusCode)
	assert.Contains(t, reply.Text, "CSRF verification failed")
}

func TestCSRFOffByDefault(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	raw, err := mentari.NewClientWithConfig(&mentari.ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)

	reply, err := raw.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, reply.StatusCode)
}

func TestRateLimitMiddleware(t *testing.T) {
	_, ts := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 2})

	post := func() *http.Response {
		resp, err := http.Post(ts.URL+mentari.ChatAPIPath, "application/json", strings.NewReader(`{"message":"hi"}`))
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusOK, post().StatusCode)
	assert.Equal(t, http.StatusOK, post().StatusCode)
	limited := post()
	assert.Equal(t, http.StatusTooManyRequests, limited.StatusCode)
	assert.NotEmpty(t, limited.Header.Get("Retry-After"))

	// Health is outside the limited group.
	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
	assert.Equal(t, 2, rl.Clients())

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("10.0.0.3"))
	assert.Equal(t, 1, rl.Clients())
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Enabled())

	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow("x"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.9:5000", "", "", "203.0.113.9"},
		{"untrusted peer ignores headers", "203.0.113.9:5000", "198.51.100.1", "", "203.0.113.9"},
		{"trusted peer forwards", "127.0.0.1:5000", "198.51.100.1, 10.0.0.1", "", "198.51.100.1"},
		{"real ip", "10.1.2.3:5000", "", "198.51.100.2", "198.51.100.2"},
		{"garbage header", "127.0.0.1:5000", "not-an-ip", "", "127.0.0.1"},
		{"no port", "198.51.100.7", "", "", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

// =============================================================================
// OTHER ENDPOINTS
// =============================================================================

func TestRandomAppearance(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	c := newClient(t, ts)

	got, err := c.RandomAppearance(context.Background(), "Ada", "daydreaming")
	require.NoError(t, err)
	assert.Contains(t, got.Appearance, "Ada")
	assert.Contains(t, got.Appearance, "daydreaming")

	got, err = c.RandomAppearance(context.Background(), "", "")
	require.NoError(t, err)
	assert.Contains(t, got.Appearance, DefaultCharacterName)
	assert.Contains(t, got.Appearance, DefaultAction)
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	c := newClient(t, ts)
	chat(t, c, "quiz on atoms")

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"status":"ok"`)
	assert.Contains(t, string(body), `"sessions":1`)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	text := string(body)
	assert.Contains(t, text, "mentari_stub_chat_messages_total 1")
	assert.Contains(t, text, `mentari_stub_quizzes_started_total{topic="atoms"} 1`)
	assert.Contains(t, text, `mentari_stub_http_requests_total{code="200",method="POST",route="/ai/chat/api/"} 1`)
	assert.Contains(t, text, "mentari_stub_sessions 1")
}

func TestTwoServersInOneProcess(t *testing.T) {
	assert.NotPanics(t, func() {
		New(Options{})
		New(Options{})
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zaptest.NewLogger(t))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, mentari.ChatAPIPath, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"response":"I encountered an error. Please try again."}`, rec.Body.String())
}

func TestServeStopsOnCancel(t *testing.T) {
	s := New(Options{Logger: zaptest.NewLogger(t)})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
