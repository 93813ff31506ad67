//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/agentconsole/internal/model"
	repo "github.com/dtroode/agentconsole/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "agentconsole_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/agentconsole_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn, repo.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sessions := repo.NewSessionRepository(conn)
	exp := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Microsecond)
	s := model.Session{
		ID:              uuid.New(),
		Subject:         "agent-7",
		Tokens:          model.TokenPair{Access: "a1", Refresh: "r1"},
		AccessExpiresAt: &exp,
	}
	require.NoError(t, sessions.Create(ctx, s))

	got, err := sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.Tokens, got.Tokens)
	require.Equal(t, "agent-7", got.Subject)
	require.True(t, got.Active())
	require.NotNil(t, got.AccessExpiresAt)
	require.True(t, exp.Equal(*got.AccessExpiresAt))

	next := model.TokenPair{Access: "a2", Refresh: "r2"}
	require.NoError(t, sessions.ReplaceTokens(ctx, s.ID, next, nil))

	got, err = sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, next, got.Tokens)
	require.Nil(t, got.AccessExpiresAt)

	require.NoError(t, sessions.End(ctx, s.ID))
	require.ErrorIs(t, sessions.End(ctx, s.ID), model.ErrNotFound)
	require.ErrorIs(t, sessions.ReplaceTokens(ctx, s.ID, next, nil), model.ErrNotFound)

	got, err = sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	require.False(t, got.Active())

	_, err = sessions.Get(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionRepository_ConcurrentReplaceKeepsWholePairs(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn, repo.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sessions := repo.NewSessionRepository(conn)
	id := uuid.New()
	require.NoError(t, sessions.Create(ctx, model.Session{ID: id, Tokens: model.TokenPair{Access: "a0", Refresh: "r0"}}))

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := model.TokenPair{Access: fmt.Sprintf("a%d", i), Refresh: fmt.Sprintf("r%d", i)}
			require.NoError(t, sessions.ReplaceTokens(ctx, id, p, nil))
		}(i)
	}
	wg.Wait()

	got, err := sessions.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, got.Tokens.Access[1:], got.Tokens.Refresh[1:], "access and refresh come from the same write")
}

func TestSessionRepository_EndIdle(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn, repo.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sessions := repo.NewSessionRepository(conn)
	id := uuid.New()
	require.NoError(t, sessions.Create(ctx, model.Session{ID: id, Tokens: model.TokenPair{Access: "a", Refresh: "r"}}))

	n, err := sessions.EndIdle(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, int64(1))

	got, err := sessions.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, got.Active())
}
