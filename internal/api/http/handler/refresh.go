package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/agentconsole/internal/api/http/proxy"
	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/model"
)

// SessionUpdater persists a renewed pair for a stored session.
type SessionUpdater interface {
	Update(ctx context.Context, id uuid.UUID, pair model.TokenPair) error
}

// Refresh exposes the refresh operation to console clients:
// POST {"refresh"} -> {"access", "refresh"}. When the caller also carries a
// session cookie, the renewed pair is written to that session before the
// response is sent.
type Refresh struct {
	refresher model.Refresher
	sessions  SessionUpdater
	ctx       model.ContextManager
	logger    *logger.Logger
}

// NewRefresh creates a new Refresh handler.
func NewRefresh(refresher model.Refresher, sessions SessionUpdater, ctxManager model.ContextManager, logger *logger.Logger) *Refresh {
	return &Refresh{
		refresher: refresher,
		sessions:  sessions,
		ctx:       ctxManager,
		logger:    logger,
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Refresh) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(w, r, &req); err != nil {
		proxy.WriteDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Refresh == "" {
		proxy.WriteDetail(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	pair, err := h.refresher.Refresh(r.Context(), req.Refresh)
	if err != nil {
		h.logger.Warn("Refresh handler: refresh failed",
			"error", err)
		if errors.Is(err, model.ErrMalformedTokenPair) {
			proxy.WriteDetail(w, http.StatusBadGateway, "identity service returned an incomplete token pair")
			return
		}
		writeError(w, err)
		return
	}

	if id, ok := h.ctx.GetSessionIDFromContext(r.Context()); ok {
		if err := h.sessions.Update(r.Context(), id, pair); err != nil {
			h.logger.Error("Refresh handler: failed to store refreshed tokens",
				"session_id", id,
				"error", err)
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, pair)
}
