package model

import (
	"context"
	"time"
)

// TokenPair is the access/refresh credential held by a session.
// A pair is replaced as a whole value, never field by field.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Validate reports ErrMalformedTokenPair unless both tokens are present.
func (p TokenPair) Validate() error {
	if p.Access == "" || p.Refresh == "" {
		return ErrMalformedTokenPair
	}
	return nil
}

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// SessionSink receives every new token pair produced by a refresh.
// It must have durably committed the pair when it returns.
type SessionSink interface {
	UpdateTokens(ctx context.Context, pair TokenPair) error
}

// SessionSinkFunc adapts a function to SessionSink.
type SessionSinkFunc func(ctx context.Context, pair TokenPair) error

// UpdateTokens calls f(ctx, pair).
func (f SessionSinkFunc) UpdateTokens(ctx context.Context, pair TokenPair) error {
	return f(ctx, pair)
}

// TokenInspector reads claims of a token without verifying its signature.
type TokenInspector interface {
	ExpiresAt(token string) (time.Time, error)
	Subject(token string) (string, error)
}
