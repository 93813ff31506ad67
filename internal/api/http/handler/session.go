package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/agentconsole/internal/api/http/proxy"
	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/model"
)

const maxBodySize = 64 << 10

// SessionService defines console session lifecycle operations.
type SessionService interface {
	Begin(ctx context.Context, pair model.TokenPair) (model.Session, error)
	Get(ctx context.Context, id uuid.UUID) (model.Session, error)
	Update(ctx context.Context, id uuid.UUID, pair model.TokenPair) error
	End(ctx context.Context, id uuid.UUID) error
}

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Session handles the session endpoints of the console.
type Session struct {
	sessions SessionService
	ctx      model.ContextManager
	cookie   CookieOptions
	logger   *logger.Logger
}

// NewSession creates a new Session handler.
func NewSession(sessions SessionService, ctxManager model.ContextManager, cookie CookieOptions, logger *logger.Logger) *Session {
	return &Session{
		sessions: sessions,
		ctx:      ctxManager,
		cookie:   cookie,
		logger:   logger,
	}
}

type sessionResponse struct {
	ID              uuid.UUID  `json:"id"`
	Subject         string     `json:"subject,omitempty"`
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toSessionResponse(s model.Session) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		Subject:         s.Subject,
		AccessExpiresAt: s.AccessExpiresAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// Create stores the pair issued by the identity exchange and sets the
// session cookie.
func (h *Session) Create(w http.ResponseWriter, r *http.Request) {
	var pair model.TokenPair
	if err := decode(w, r, &pair); err != nil {
		proxy.WriteDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessions.Begin(r.Context(), pair)
	if err != nil {
		h.logger.Error("Session handler: failed to begin session",
			"error", err)
		writeError(w, err)
		return
	}

	http.SetCookie(w, h.newCookie(session.ID.String(), int(h.cookie.MaxAge.Seconds())))
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Get describes the caller's session without exposing its tokens.
func (h *Session) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ctx.GetSessionIDFromContext(r.Context())
	if !ok {
		proxy.WriteDetail(w, http.StatusUnauthorized, "session not found")
		return
	}

	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// UpdateTokens replaces the session's pair after a client-side refresh.
func (h *Session) UpdateTokens(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ctx.GetSessionIDFromContext(r.Context())
	if !ok {
		proxy.WriteDetail(w, http.StatusUnauthorized, "session not found")
		return
	}

	var pair model.TokenPair
	if err := decode(w, r, &pair); err != nil {
		proxy.WriteDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.Update(r.Context(), id, pair); err != nil {
		h.logger.Warn("Session handler: failed to update tokens",
			"session_id", id,
			"error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete ends the session and clears the cookie. It succeeds without a
// session too.
func (h *Session) Delete(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.ctx.GetSessionIDFromContext(r.Context()); ok {
		if err := h.sessions.End(r.Context(), id); err != nil {
			h.logger.Error("Session handler: failed to end session",
				"session_id", id,
				"error", err)
			writeError(w, err)
			return
		}
	}

	http.SetCookie(w, h.newCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Session) newCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
