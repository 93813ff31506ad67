package gateway

import (
	"encoding/json"
	"strings"

	"github.com/dtroode/agentconsole/internal/model"
)

const (
	accessTokenType      = "access"
	tokenExpiredMessage  = "Token is expired"
	expiredMessageMarker = "expired"
)

// IsExpired reports whether a non-2xx response body says the access token expired.
// Bodies that are empty or not the expected JSON classify as not expired.
func IsExpired(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var signal model.ExpirySignal
	if err := json.Unmarshal(body, &signal); err != nil {
		return false
	}
	return Expired(signal)
}

// Expired applies the expiry rule to a decoded signal.
func Expired(signal model.ExpirySignal) bool {
	if signal.Code != model.TokenNotValidCode {
		return false
	}
	for _, m := range signal.Messages {
		if m.TokenType != accessTokenType {
			continue
		}
		if m.Message == tokenExpiredMessage || strings.Contains(strings.ToLower(m.Message), expiredMessageMarker) {
			return true
		}
	}
	return false
}
