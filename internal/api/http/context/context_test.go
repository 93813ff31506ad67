package context

import (
	stdctx "context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/agentconsole/internal/model"
)

func TestManager_SetAndGetSession(t *testing.T) {
	m := NewManager()
	id := uuid.New()
	pair := model.TokenPair{Access: "a", Refresh: "r"}
	ctx := m.SetSessionToContext(stdctx.Background(), id, pair)

	gotID, ok := m.GetSessionIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, gotID)

	gotPair, ok := m.GetTokensFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, pair, gotPair)
}

func TestManager_BearerOnly(t *testing.T) {
	m := NewManager()
	ctx := m.SetSessionToContext(stdctx.Background(), uuid.Nil, model.TokenPair{Access: "a"})

	_, ok := m.GetSessionIDFromContext(ctx)
	assert.False(t, ok)

	pair, ok := m.GetTokensFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "a", pair.Access)
}

func TestManager_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetSessionIDFromContext(stdctx.Background())
	assert.False(t, ok)
	_, ok = m.GetTokensFromContext(stdctx.Background())
	assert.False(t, ok)
}

func TestManager_EmptyAccessIsAbsent(t *testing.T) {
	m := NewManager()
	ctx := m.SetSessionToContext(stdctx.Background(), uuid.New(), model.TokenPair{})
	_, ok := m.GetTokensFromContext(ctx)
	assert.False(t, ok)
}
