package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/model"
)

// SessionTokens resolves the current pair of a stored session.
type SessionTokens interface {
	Tokens(ctx context.Context, id uuid.UUID) (model.TokenPair, error)
}

// Session resolves the caller's token pair and puts it into the request
// context. A bearer Authorization header wins over the session cookie.
// Unresolvable requests pass through without a session; handlers that need
// one answer 401.
type Session struct {
	sessions   SessionTokens
	ctx        model.ContextManager
	cookieName string
	logger     *logger.Logger
}

// NewSession creates a new Session middleware.
func NewSession(sessions SessionTokens, ctxManager model.ContextManager, cookieName string, logger *logger.Logger) *Session {
	return &Session{
		sessions:   sessions,
		ctx:        ctxManager,
		cookieName: cookieName,
		logger:     logger,
	}
}

func (m *Session) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if access, ok := bearer(r.Header.Get("Authorization")); ok {
			ctx := m.ctx.SetSessionToContext(r.Context(), uuid.Nil, model.TokenPair{Access: access})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(m.cookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		id, err := uuid.Parse(cookie.Value)
		if err != nil {
			m.logger.Debug("Session middleware: malformed session cookie")
			next.ServeHTTP(w, r)
			return
		}

		pair, err := m.sessions.Tokens(r.Context(), id)
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) && !errors.Is(err, model.ErrSessionEnded) {
				m.logger.Error("Session middleware: failed to resolve session",
					"session_id", id,
					"error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(m.ctx.SetSessionToContext(r.Context(), id, pair)))
	})
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
