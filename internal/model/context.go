package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager carries the resolved session through request contexts.
type ContextManager interface {
	SetSessionToContext(ctx context.Context, sessionID uuid.UUID, pair TokenPair) context.Context
	GetSessionIDFromContext(ctx context.Context) (uuid.UUID, bool)
	GetTokensFromContext(ctx context.Context) (TokenPair, bool)
}
