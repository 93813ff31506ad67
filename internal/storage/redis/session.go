// Package redis stores console sessions in Redis, one JSON value per session
// with a sliding TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dtroode/agentconsole/internal/model"
)

// maxTxRetries bounds optimistic retries when a session key changes under WATCH.
const maxTxRetries = 8

var _ model.SessionStore = (*SessionStore)(nil)

type SessionStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionStore creates a SessionStore. Keys are "<prefix>:session:<id>".
// A zero ttl means model.DefaultSessionTTL.
func NewSessionStore(client redis.UniversalClient, prefix string, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = model.DefaultSessionTTL
	}
	return &SessionStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionStore) key(id uuid.UUID) string {
	return s.prefix + ":session:" + id.String()
}

func (s *SessionStore) Create(ctx context.Context, session model.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := s.now()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.EndedAt = nil

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (model.Session, error) {
	return s.get(ctx, s.redis, s.key(id))
}

// ReplaceTokens rewrites the session value inside a WATCH transaction and
// extends its TTL. Ended or unknown sessions yield model.ErrNotFound.
func (s *SessionStore) ReplaceTokens(ctx context.Context, id uuid.UUID, pair model.TokenPair, accessExpiresAt *time.Time) error {
	return s.update(ctx, id, s.ttl, func(session *model.Session) {
		session.Tokens = pair
		session.AccessExpiresAt = accessExpiresAt
		session.UpdatedAt = s.now()
	})
}

// End marks the session ended. The value keeps its remaining TTL.
func (s *SessionStore) End(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, id, redis.KeepTTL, func(session *model.Session) {
		now := s.now()
		session.EndedAt = &now
		session.UpdatedAt = now
	})
}

func (s *SessionStore) update(ctx context.Context, id uuid.UUID, ttl time.Duration, mutate func(*model.Session)) error {
	key := s.key(id)

	txf := func(tx *redis.Tx) error {
		session, err := s.get(ctx, tx, key)
		if err != nil {
			return err
		}
		if !session.Active() {
			return model.ErrNotFound
		}
		mutate(&session)

		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("failed to update session: %w", err)
		}
		return err
	}
	return fmt.Errorf("failed to update session: %w", redis.TxFailedErr)
}

func (s *SessionStore) get(ctx context.Context, c redis.Cmdable, key string) (model.Session, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return model.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return session, nil
}
