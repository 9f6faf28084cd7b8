package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "faq:session:"
	maxRetries = 5
)

// SessionRepository shares sessions between instances through redis.
// Each update runs as an optimistic WATCH/MULTI transaction on the session key.
type SessionRepository struct {
	client   *redis.Client
	logger   logger.ILogger
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

var _ store.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(client *redis.Client, log logger.ILogger, ttl time.Duration, maxTurns int) *SessionRepository {
	if ttl <= 0 {
		ttl = store.DefaultSessionTTL
	}
	if maxTurns <= 0 {
		maxTurns = store.DefaultMaxTurns
	}
	return &SessionRepository{
		client:   client,
		logger:   log,
		ttl:      ttl,
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

// NewClient parses url (falling back to a bare address) and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return rdb, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *SessionRepository) GetHistory(ctx context.Context, sessionID string) []store.Turn {
	history, err := r.update(ctx, sessionID, nil)
	if err != nil {
		r.logger.Warn("SESSION", "Redis read failed, starting empty", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return []store.Turn{}
	}
	return history
}

func (r *SessionRepository) Append(ctx context.Context, sessionID string, role store.Role, content string) {
	turn := store.Turn{Role: role, Content: content}
	if _, err := r.update(ctx, sessionID, &turn); err != nil {
		r.logger.Warn("SESSION", "Redis append failed, turn dropped", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func (r *SessionRepository) update(ctx context.Context, sessionID string, turn *store.Turn) ([]store.Turn, error) {
	key := keyPrefix + sessionID
	var snapshot []store.Turn

	txf := func(tx *redis.Tx) error {
		session, err := r.load(ctx, tx, key, sessionID)
		if err != nil {
			return err
		}
		if turn != nil {
			session.Push(*turn, r.maxTurns)
		}

		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			snapshot = session.Snapshot()
		}
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return snapshot, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("session %s: too much contention", sessionID)
}

func (r *SessionRepository) load(ctx context.Context, tx *redis.Tx, key, sessionID string) (*store.Session, error) {
	now := r.now()
	fresh := &store.Session{ID: sessionID, LastActive: now, History: []store.Turn{}}

	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fresh, nil
	}
	if err != nil {
		return nil, err
	}

	var session store.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// unreadable payloads are replaced rather than failing the request
		return fresh, nil
	}
	if session.Expired(now, r.ttl) {
		return fresh, nil
	}
	session.LastActive = now
	return &session, nil
}
