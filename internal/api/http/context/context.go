package context

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/agentconsole/internal/model"
)

type sessionIDKey struct{}

type tokensKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager stores the resolved console session in request contexts.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetSessionToContext returns ctx carrying the session id and its token pair.
// A nil id means the pair came with the request itself and no stored session
// backs it.
func (m *Manager) SetSessionToContext(ctx context.Context, sessionID uuid.UUID, pair model.TokenPair) context.Context {
	if sessionID != uuid.Nil {
		ctx = context.WithValue(ctx, sessionIDKey{}, sessionID)
	}
	return context.WithValue(ctx, tokensKey{}, pair)
}

func (m *Manager) GetSessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (m *Manager) GetTokensFromContext(ctx context.Context) (model.TokenPair, bool) {
	pair, ok := ctx.Value(tokensKey{}).(model.TokenPair)
	if !ok || pair.Access == "" {
		return model.TokenPair{}, false
	}
	return pair, true
}
