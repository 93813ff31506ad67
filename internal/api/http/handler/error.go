package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/dtroode/agentconsole/internal/api/http/proxy"
	"github.com/dtroode/agentconsole/internal/model"
)

// handleError maps service errors to a status and a safe detail message.
func handleError(err error) (int, string) {
	var upstream *model.UpstreamError
	var netErr *model.NetworkError

	switch {
	case errors.Is(err, model.ErrMalformedTokenPair):
		return http.StatusBadRequest, "access and refresh tokens are required"
	case errors.Is(err, model.ErrRefreshRejected):
		if errors.As(err, &upstream) && upstream.Message != "" {
			return http.StatusUnauthorized, upstream.Message
		}
		return http.StatusUnauthorized, "refresh token rejected"
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrSessionEnded):
		return http.StatusUnauthorized, "session not found"
	case errors.As(err, &netErr):
		status, _ := proxy.Classify(context.Background(), netErr.Err)
		return status, "identity service unavailable"
	case errors.As(err, &upstream):
		return http.StatusBadGateway, upstream.Message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := handleError(err)
	proxy.WriteDetail(w, status, msg)
}
