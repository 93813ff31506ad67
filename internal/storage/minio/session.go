package minio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/agentconsole/internal/model"
)

const sessionPrefix = "sessions/"

var _ model.SessionStore = (*SessionStore)(nil)

// SessionStore keeps each session as one JSON object, so a token pair is
// always replaced by a single object write.
type SessionStore struct {
	objects model.ObjectStore
	now     func() time.Time

	// mu serialises read-modify-write cycles of this process.
	mu sync.Mutex
}

// NewSessionStore creates a SessionStore over objects.
func NewSessionStore(objects model.ObjectStore) *SessionStore {
	return &SessionStore{objects: objects, now: func() time.Time { return time.Now().UTC() }}
}

func sessionKey(id uuid.UUID) string {
	return sessionPrefix + id.String() + ".json"
}

func (s *SessionStore) Create(ctx context.Context, session model.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := s.now()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.EndedAt = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, session)
}

func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (model.Session, error) {
	data, err := s.objects.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
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

func (s *SessionStore) ReplaceTokens(ctx context.Context, id uuid.UUID, pair model.TokenPair, accessExpiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !session.Active() {
		return model.ErrNotFound
	}

	session.Tokens = pair
	session.AccessExpiresAt = accessExpiresAt
	session.UpdatedAt = s.now()
	return s.write(ctx, session)
}

func (s *SessionStore) End(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !session.Active() {
		return model.ErrNotFound
	}

	now := s.now()
	session.EndedAt = &now
	session.UpdatedAt = now
	return s.write(ctx, session)
}

func (s *SessionStore) write(ctx context.Context, session model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.objects.Put(ctx, sessionKey(session.ID), data, "application/json"); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
