package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return s
}

func TestInspector_ExpiresAt(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	tok := sign(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		TokenType:        "access",
	})

	got, err := NewInspector().ExpiresAt(tok)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))
}

func TestInspector_ExpiredTokenStillDecodes(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	tok := sign(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		TokenType:        "access",
	})

	got, err := NewInspector().ExpiresAt(tok)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))
}

func TestInspector_NoExpiry(t *testing.T) {
	tok := sign(t, Claims{TokenType: "refresh"})

	_, err := NewInspector().ExpiresAt(tok)
	require.ErrorIs(t, err, errNoExpiry)
}

func TestInspector_Garbage(t *testing.T) {
	_, err := NewInspector().ExpiresAt("not-a-jwt")
	require.Error(t, err)
}

func TestInspector_Subject(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   string
	}{
		{
			name:   "sub claim",
			claims: Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "agent-7"}},
			want:   "agent-7",
		},
		{
			name:   "numeric user_id",
			claims: Claims{UserID: 42},
			want:   "42",
		},
		{
			name:   "string user_id",
			claims: Claims{UserID: "5b0c"},
			want:   "5b0c",
		},
		{
			name:   "no subject",
			claims: Claims{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewInspector().Subject(sign(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInspector_Type(t *testing.T) {
	got, err := NewInspector().Type(sign(t, Claims{TokenType: "refresh"}))
	require.NoError(t, err)
	assert.Equal(t, "refresh", got)
}

func TestFingerprint(t *testing.T) {
	assert.Empty(t, Fingerprint(""))
	assert.Len(t, Fingerprint("abc"), 12)
	assert.Equal(t, Fingerprint("abc"), Fingerprint("abc"))
	assert.NotEqual(t, Fingerprint("abc"), Fingerprint("abd"))
}
