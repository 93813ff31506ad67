package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/agentconsole/internal/model"
)

// Claims is the claim set the backend puts into access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    any    `json:"user_id,omitempty"`
}

// Inspector reads backend-issued tokens without verifying them.
// The console never holds the signing key; the backend remains the only judge of validity.
type Inspector struct {
	parser *jwt.Parser
}

var _ model.TokenInspector = (*Inspector)(nil)

var errNoExpiry = errors.New("token has no exp claim")

// NewInspector creates a new token Inspector.
func NewInspector() *Inspector {
	return &Inspector{parser: jwt.NewParser()}
}

func (i *Inspector) claims(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of the token.
func (i *Inspector) ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := i.claims(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Subject returns the sub claim, falling back to user_id.
func (i *Inspector) Subject(tokenString string) (string, error) {
	claims, err := i.claims(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	switch v := claims.UserID.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// Type returns the token_type claim ("access" or "refresh").
func (i *Inspector) Type(tokenString string) (string, error) {
	claims, err := i.claims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.TokenType, nil
}

// Fingerprint identifies a token in logs without revealing it.
func Fingerprint(tokenString string) string {
	if tokenString == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:6])
}
