package model

import (
	"errors"
	"fmt"
	"strings"
)

// RefreshFailedMarker is carried by every SessionExpiredError message.
// Callers outside the process detect forced logout by this substring.
const RefreshFailedMarker = "Token refresh failed"

var (
	ErrMalformedTokenPair = errors.New("malformed token pair")
	ErrRefreshRejected    = errors.New("refresh token rejected")
	ErrSessionEnded       = errors.New("session ended")
)

// SessionExpiredError means the access token expired and could not be renewed.
// The session must be treated as unauthenticated.
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	if e.Err == nil {
		return RefreshFailedMarker
	}
	return fmt.Sprintf("%s: %v", RefreshFailedMarker, e.Err)
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// IsSessionExpired reports whether err ends the session. Errors that crossed a
// process boundary as plain text are recognised by RefreshFailedMarker.
func IsSessionExpired(err error) bool {
	if err == nil {
		return false
	}
	var se *SessionExpiredError
	if errors.As(err, &se) {
		return true
	}
	return strings.Contains(err.Error(), RefreshFailedMarker)
}

// NetworkError is a transport failure on a request issued by the gateway.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx answer from an upstream service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream responded with status %d: %s", e.StatusCode, e.Message)
}
