package store

import (
	"context"
	"time"
)

// Role of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	// DefaultSessionTTL is the idle time after which a session starts over.
	DefaultSessionTTL = 1800 * time.Second

	// DefaultMaxTurns is the history cap; oldest turns are dropped first.
	DefaultMaxTurns = 10

	// DefaultSessionID is used when a request carries no session id.
	DefaultSessionID = "default"
)

// Turn is one immutable utterance in a session history
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session represents the short-lived conversation state of one client
type Session struct {
	ID         string    `json:"id"`
	LastActive time.Time `json:"last_active"`
	History    []Turn    `json:"history"`
}

// Expired reports whether the session has been idle longer than ttl at now.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActive) > ttl
}

// Push appends a turn and keeps at most maxTurns of the newest ones.
func (s *Session) Push(turn Turn, maxTurns int) {
	s.History = append(s.History, turn)
	if maxTurns > 0 && len(s.History) > maxTurns {
		s.History = append([]Turn(nil), s.History[len(s.History)-maxTurns:]...)
	}
}

// Snapshot returns a copy of the history safe to hand out to callers.
func (s *Session) Snapshot() []Turn {
	out := make([]Turn, len(s.History))
	copy(out, s.History)
	return out
}

// SessionStore keeps per-session histories with idle expiry.
// Implementations must be safe for concurrent use and never surface errors.
type SessionStore interface {
	GetHistory(ctx context.Context, sessionID string) []Turn
	Append(ctx context.Context, sessionID string, role Role, content string)
}

// LastTurns returns the trailing n turns of history (all of them if fewer).
func LastTurns(history []Turn, n int) []Turn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
