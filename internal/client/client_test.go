package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/agentconsole/internal/gateway"
	"github.com/dtroode/agentconsole/internal/mocks"
	"github.com/dtroode/agentconsole/internal/model"
	"github.com/dtroode/agentconsole/internal/testutil"
	"github.com/dtroode/agentconsole/internal/tokenfile"
)

const expiredBody = `{"code":"token_not_valid","messages":[{"token_class":"AccessToken","token_type":"access","message":"Token is expired"}]}`

var (
	oldPair = model.TokenPair{Access: "access-old", Refresh: "refresh-old"}
	newPair = model.TokenPair{Access: "access-new", Refresh: "refresh-new"}
)

func newConsole(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+newPair.Access {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(expiredBody))
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `","body":` + string(orNull(body)) + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func orNull(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}

func TestClient_RefreshesAndPersists(t *testing.T) {
	srv, _ := newConsole(t)
	log := testutil.MakeNoopLogger()

	store := tokenfile.New(filepath.Join(t.TempDir(), "tokens.json"))
	holder := NewHolder(oldPair, store)

	refresher := mocks.NewRefresher(t)
	refresher.On("Refresh", mock.Anything, oldPair.Refresh).Return(newPair, nil).Once()

	gw := gateway.New(srv.Client(), gateway.NewCoordinator(refresher, holder, log), log)
	c := New(srv.URL+"/", gw, holder)

	resp, err := c.Do(context.Background(), http.MethodPost, "/api/orders", []byte(`{"n":1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"path":"/api/orders","body":{"n":1}}`, string(resp.Body))

	assert.Equal(t, newPair, holder.Pair())
	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, newPair, stored)

	// The refreshed pair is used directly from now on.
	resp, err = c.Do(context.Background(), http.MethodGet, "api/offices", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestClient_RefreshRejected(t *testing.T) {
	srv, calls := newConsole(t)
	log := testutil.MakeNoopLogger()

	holder := NewHolder(oldPair, nil)
	refresher := mocks.NewRefresher(t)
	refresher.On("Refresh", mock.Anything, oldPair.Refresh).Return(model.TokenPair{}, model.ErrRefreshRejected).Once()

	gw := gateway.New(srv.Client(), gateway.NewCoordinator(refresher, holder, log), log)
	c := New(srv.URL, gw, holder)

	_, err := c.Do(context.Background(), http.MethodGet, "/api/wallets", nil)
	require.Error(t, err)
	assert.True(t, model.IsSessionExpired(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, oldPair, holder.Pair())
}

func TestHolder_DurableFailureKeepsPair(t *testing.T) {
	sink := mocks.NewSessionSink(t)
	sink.On("UpdateTokens", mock.Anything, newPair).Return(errors.New("disk full")).Once()

	h := NewHolder(oldPair, sink)
	err := h.UpdateTokens(context.Background(), newPair)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, oldPair, h.Pair())
}

func TestHolder_RejectsPartialPair(t *testing.T) {
	h := NewHolder(oldPair, mocks.NewSessionSink(t))

	err := h.UpdateTokens(context.Background(), model.TokenPair{Access: "only"})

	require.ErrorIs(t, err, model.ErrMalformedTokenPair)
	assert.Equal(t, oldPair, h.Pair())
}

func TestClient_URL(t *testing.T) {
	c := New("http://console:8080/", nil, nil)
	assert.Equal(t, "http://console:8080/api/orders", c.url("/api/orders"))
	assert.Equal(t, "http://console:8080/api/orders", c.url("api/orders"))
	assert.Equal(t, "https://elsewhere/x", c.url("https://elsewhere/x"))
}
