package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL bounds how long an idle session is kept by the stores.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionStore persists console sessions and their current token pair.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, id uuid.UUID) (Session, error)
	// ReplaceTokens swaps the token pair of an active session in one write.
	ReplaceTokens(ctx context.Context, id uuid.UUID, pair TokenPair, accessExpiresAt *time.Time) error
	End(ctx context.Context, id uuid.UUID) error
}

// Session is a console session bound to one agent.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	Subject         string     `json:"subject,omitempty"`
	Tokens          TokenPair  `json:"tokens"`
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// Active reports whether the session has not been ended.
func (s Session) Active() bool {
	return s.EndedAt == nil
}
