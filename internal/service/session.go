package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/metrics"
	"github.com/dtroode/agentconsole/internal/model"
	"github.com/dtroode/agentconsole/internal/token"
)

// Session manages console sessions and the token pair each one holds.
// It is the durable end of token propagation: the gateway's sink for a
// session writes through Update.
type Session struct {
	store     model.SessionStore
	inspector model.TokenInspector
	logger    *logger.Logger
}

// NewSession creates a new Session service.
func NewSession(store model.SessionStore, inspector model.TokenInspector, logger *logger.Logger) *Session {
	return &Session{store: store, inspector: inspector, logger: logger}
}

// Begin stores the first pair of a session, as issued by the identity exchange.
func (s *Session) Begin(ctx context.Context, pair model.TokenPair) (model.Session, error) {
	if err := pair.Validate(); err != nil {
		return model.Session{}, err
	}

	now := time.Now().UTC()
	session := model.Session{
		ID:              uuid.New(),
		Subject:         s.subject(pair.Access),
		Tokens:          pair,
		AccessExpiresAt: s.accessExpiry(pair.Access),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(ctx, session); err != nil {
		s.logger.Error("Session service: failed to create session",
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	metrics.SessionEventsTotal.WithLabelValues("begin").Inc()
	s.logger.Info("Session service: session started",
		"session_id", session.ID,
		"subject", session.Subject)

	return session, nil
}

// Get returns an active session.
func (s *Session) Get(ctx context.Context, id uuid.UUID) (model.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if !session.Active() {
		return model.Session{}, model.ErrSessionEnded
	}
	return session, nil
}

// Tokens returns the current pair of an active session.
func (s *Session) Tokens(ctx context.Context, id uuid.UUID) (model.TokenPair, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return model.TokenPair{}, err
	}
	return session.Tokens, nil
}

// Update replaces the pair of an active session as one value.
func (s *Session) Update(ctx context.Context, id uuid.UUID, pair model.TokenPair) error {
	if err := pair.Validate(); err != nil {
		return err
	}

	err := s.store.ReplaceTokens(ctx, id, pair, s.accessExpiry(pair.Access))
	if errors.Is(err, model.ErrNotFound) {
		if _, getErr := s.store.Get(ctx, id); getErr == nil {
			return model.ErrSessionEnded
		}
		return err
	}
	if err != nil {
		s.logger.Error("Session service: failed to replace tokens",
			"session_id", id,
			"error", err.Error())
		return fmt.Errorf("failed to replace tokens: %w", err)
	}

	metrics.SessionEventsTotal.WithLabelValues("update").Inc()
	s.logger.Debug("Session service: tokens replaced",
		"session_id", id,
		"access_fp", token.Fingerprint(pair.Access))

	return nil
}

// End marks the session as ended. Ending an ended session is a no-op.
func (s *Session) End(ctx context.Context, id uuid.UUID) error {
	if err := s.store.End(ctx, id); err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to end session: %w", err)
	}

	metrics.SessionEventsTotal.WithLabelValues("end").Inc()
	s.logger.Info("Session service: session ended",
		"session_id", id)

	return nil
}

// Sink binds the service to one session.
func (s *Session) Sink(id uuid.UUID) model.SessionSink {
	return model.SessionSinkFunc(func(ctx context.Context, pair model.TokenPair) error {
		return s.Update(ctx, id, pair)
	})
}

func (s *Session) subject(access string) string {
	sub, err := s.inspector.Subject(access)
	if err != nil {
		s.logger.Debug("Session service: access token has no readable subject",
			"error", err.Error())
		return ""
	}
	return sub
}

func (s *Session) accessExpiry(access string) *time.Time {
	exp, err := s.inspector.ExpiresAt(access)
	if err != nil {
		return nil
	}
	exp = exp.UTC()
	return &exp
}
