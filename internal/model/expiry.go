package model

// TokenNotValidCode is the error code protected endpoints use for rejected tokens.
const TokenNotValidCode = "token_not_valid"

// ExpiryMessage is a single entry of an ExpirySignal.
type ExpiryMessage struct {
	TokenClass string `json:"token_class,omitempty"`
	TokenType  string `json:"token_type"`
	Message    string `json:"message"`
}

// ExpirySignal is the error body returned by protected endpoints when a token is rejected.
type ExpirySignal struct {
	Detail   string          `json:"detail,omitempty"`
	Code     string          `json:"code"`
	Messages []ExpiryMessage `json:"messages"`
}
