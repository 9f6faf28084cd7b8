package memory

import (
	"context"
	"time"

	"faq-chatbot-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache    *cache.Cache
	locks    *keyedMutex
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

var _ store.SessionStore = (*SessionRepository)(nil)

type Option func(*SessionRepository)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *SessionRepository) {
		r.now = now
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(r *SessionRepository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithMaxTurns(n int) Option {
	return func(r *SessionRepository) {
		if n > 0 {
			r.maxTurns = n
		}
	}
}

// NewSessionRepository builds the in-process store. Expiry is evaluated lazily on
// access; a sweepInterval > 0 additionally lets go-cache purge idle entries.
func NewSessionRepository(sweepInterval time.Duration, opts ...Option) *SessionRepository {
	r := &SessionRepository{
		locks:    newKeyedMutex(),
		ttl:      store.DefaultSessionTTL,
		maxTurns: store.DefaultMaxTurns,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	// go-cache treats a non-positive cleanup interval as "no janitor"
	r.cache = cache.New(cache.NoExpiration, sweepInterval)
	return r
}

func (r *SessionRepository) GetHistory(_ context.Context, sessionID string) []store.Turn {
	unlock := r.locks.Lock(sessionID)
	defer unlock()

	return r.touch(sessionID).Snapshot()
}

func (r *SessionRepository) Append(_ context.Context, sessionID string, role store.Role, content string) {
	unlock := r.locks.Lock(sessionID)
	defer unlock()

	session := r.touch(sessionID)
	session.Push(store.Turn{Role: role, Content: content}, r.maxTurns)
}

// Len is the number of sessions currently held, expired or not.
func (r *SessionRepository) Len() int {
	return r.cache.ItemCount()
}

// touch loads or recreates the session and refreshes last_active. Caller holds the key lock.
func (r *SessionRepository) touch(sessionID string) *store.Session {
	now := r.now()

	var session *store.Session
	if x, found := r.cache.Get(sessionID); found {
		session = x.(*store.Session)
		if session.Expired(now, r.ttl) {
			session = nil
		}
	}
	if session == nil {
		session = &store.Session{ID: sessionID}
	}
	session.LastActive = now

	// the janitor only ever removes entries that have been idle past the ttl
	r.cache.Set(sessionID, session, r.ttl)
	return session
}
