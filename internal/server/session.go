// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
)

// SessionCookieName is the cookie carrying the stub's session key.
const SessionCookieName = "sessionid"

// supportThreshold is the interaction count at which support_needed moves
// from "low" to "moderate".
const supportThreshold = 10

// topicKeywords feed the growth indicator.
var topicKeywords = []string{"math", "chemistry", "quiz", "code", "blog", "forum"}

// Session is the per-browser state the stub keeps between messages.
type Session struct {
	ID string

	Interactions int
	Topics       []string

	Quiz     *QuizState
	Attempts []QuizAttempt

	lastSeen time.Time
}

// QuizAttempt records one finished quiz.
type QuizAttempt struct {
	Topic      string
	Score      int
	Total      int
	Percentage float64
}

// Track counts one message and notes any topic keywords it mentions.
func (s *Session) Track(message string) {
	s.Interactions++
	lower := strings.ToLower(message)
	for _, kw := range topicKeywords {
		if strings.Contains(lower, kw) && !s.hasTopic(kw) {
			s.Topics = append(s.Topics, kw)
		}
	}
}

func (s *Session) hasTopic(kw string) bool {
	for _, t := range s.Topics {
		if t == kw {
			return true
		}
	}
	return false
}

// Stats returns the conversation_stats block for this session.
func (s *Session) Stats() *mentari.ConversationStats {
	support := "low"
	if s.Interactions >= supportThreshold {
		support = "moderate"
	}
	return &mentari.ConversationStats{
		TotalInteractions: mentari.Scalar(strconv.Itoa(s.Interactions)),
		GrowthIndicators:  mentari.Scalar("↑ " + strconv.Itoa(len(s.Topics)) + " topics explored"),
		SupportNeeded:     mentari.Scalar(support),
	}
}

// SessionStore keeps sessions in memory keyed by cookie value. Sessions idle
// longer than the TTL are dropped on the next sweep.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
	onChange  func(n int)
}

// NewSessionStore creates an empty store.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// With runs fn on the session for r, creating one (and setting its cookie
// on w) when the request carries none or an unknown one. fn runs under the
// store lock, so session state is never touched concurrently.
func (st *SessionStore) With(w http.ResponseWriter, r *http.Request, fn func(*Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweep(now)

	var sess *Session
	if c, err := r.Cookie(SessionCookieName); err == nil {
		sess = st.sessions[c.Value]
	}
	if sess == nil {
		sess = &Session{ID: newToken()}
		st.sessions[sess.ID] = sess
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		st.changed()
	}
	sess.lastSeen = now
	fn(sess)
}

// sweep must be called with mu held.
func (st *SessionStore) sweep(now time.Time) {
	if now.Sub(st.lastSweep) < st.ttl/4 {
		return
	}
	st.lastSweep = now
	removed := false
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) > st.ttl {
			delete(st.sessions, id)
			removed = true
		}
	}
	if removed {
		st.changed()
	}
}

func (st *SessionStore) changed() {
	if st.onChange != nil {
		st.onChange(len(st.sessions))
	}
}

// newToken returns 32 hex characters, the shape of a Django session key.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
