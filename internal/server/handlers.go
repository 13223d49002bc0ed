// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
)

// handleChatPage handles GET /ai/chat/. It hands out the csrftoken cookie
// the chat API expects.
func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(mentari.CSRFCookieName); err != nil || c.Value == "" {
		http.SetCookie(w, &http.Cookie{
			Name:     mentari.CSRFCookieName,
			Value:    newToken(),
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		})
	}
	s.sessions.With(w, r, func(*Session) {})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, chatPageHTML)
}

// handleChatAPI handles /ai/chat/api/.
func (s *Server) handleChatAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	if s.opts.EnforceCSRF && !csrfValid(r) {
		s.metrics.csrfRejected.Inc()
		s.logger.Warn("csrf check failed", zap.String("client_ip", GetClientIP(r)))
		writeJSON(w, http.StatusForbidden, map[string]string{
			"response": "CSRF verification failed. Reload the chat page and try again.",
			"error":    "csrf",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req mentari.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Debug("invalid chat body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"response": "Invalid message format."})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusOK, map[string]string{"response": "Please enter a message."})
		return
	}

	var resp mentari.ChatResponse
	s.sessions.With(w, r, func(sess *Session) {
		reply := s.brain.Respond(sess, message)
		sess.Track(message)

		resp = mentari.ChatResponse{
			Response:    mentari.NewResponseText(reply.Text),
			Card:        reply.Card,
			RedirectURL: reply.RedirectURL,
			Stats:       sess.Stats(),
		}

		switch reply.event {
		case "started":
			s.metrics.quizzesStarted.WithLabelValues(reply.topic).Inc()
		case "completed":
			s.metrics.quizzesDone.WithLabelValues(reply.topic).Inc()
		}
	})
	s.metrics.chatMessages.Inc()

	writeJSON(w, http.StatusOK, resp)
}

// csrfValid reports whether the X-CSRFToken header matches the csrftoken
// cookie.
func csrfValid(r *http.Request) bool {
	c, err := r.Cookie(mentari.CSRFCookieName)
	if err != nil || c.Value == "" {
		return false
	}
	header := r.Header.Get(mentari.CSRFHeader)
	return subtle.ConstantTimeCompare([]byte(header), []byte(c.Value)) == 1
}

// handleRandomAppearance handles GET /mentari/random_appearance.
func (s *Server) handleRandomAppearance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	appearance := s.brain.Appearance(q.Get("character_name"), q.Get("action"))
	s.metrics.reflections.Inc()
	writeJSON(w, http.StatusOK, mentari.Appearance{Appearance: appearance})
}

// handleQuizPage handles GET /quiz/{slug}/, the target of redirect replies.
func (s *Server) handleQuizPage(w http.ResponseWriter, r *http.Request) {
	topic, ok := s.brain.Bank().Topic(chi.URLParam(r, "slug"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"UTF-8\"><title>%s Quiz</title></head>\n<body>\n",
		html.EscapeString(topic.Title()))
	fmt.Fprintf(&sb, "<h1>%s Quiz</h1>\n<ol>\n", html.EscapeString(topic.Title()))
	for _, q := range topic.Questions {
		fmt.Fprintf(&sb, "<li><p>%s</p><ol type=\"A\">", html.EscapeString(q.Text))
		for _, c := range q.Choices {
			fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(c))
		}
		sb.WriteString("</ol></li>\n")
	}
	sb.WriteString("</ol>\n</body>\n</html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, sb.String())
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
	Topics   int    `json:"topics"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.sessions.Len(),
		Uptime:   time.Since(s.started).Truncate(time.Second).String(),
		Topics:   len(s.brain.Bank().Topics),
	})
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const chatPageHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Mentari Chat</title></head>
<body>
<h1>Mentari Chat</h1>
<p>This is the development stub. Talk to it with the mentari client.</p>
</body>
</html>
`
