package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/agentconsole/internal/model"
	"github.com/dtroode/agentconsole/internal/testutil"
)

func TestClient_Refresh(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      model.TokenPair
		wantErrIs error
		wantErr   bool
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"access":"a2","refresh":"r2"}`,
			want:   model.TokenPair{Access: "a2", Refresh: "r2"},
		},
		{
			name:   "created",
			status: http.StatusCreated,
			body:   `{"access":"a3","refresh":"r3"}`,
			want:   model.TokenPair{Access: "a3", Refresh: "r3"},
		},
		{
			name:      "missing refresh",
			status:    http.StatusOK,
			body:      `{"access":"a2"}`,
			wantErrIs: model.ErrMalformedTokenPair,
		},
		{
			name:      "missing access",
			status:    http.StatusOK,
			body:      `{"refresh":"r2"}`,
			wantErrIs: model.ErrMalformedTokenPair,
		},
		{
			name:      "not json",
			status:    http.StatusOK,
			body:      `<html></html>`,
			wantErrIs: model.ErrMalformedTokenPair,
		},
		{
			name:      "refresh token invalid",
			status:    http.StatusUnauthorized,
			body:      `{"detail":"Token is invalid or expired","code":"token_not_valid"}`,
			wantErrIs: model.ErrRefreshRejected,
		},
		{
			name:      "bad request",
			status:    http.StatusBadRequest,
			body:      `{"message":"refresh is required"}`,
			wantErrIs: model.ErrRefreshRejected,
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    `{"detail":"upstream down"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "r1", req["refresh"])

				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL+"/api/token/refresh/", 5*time.Second, testutil.MakeNoopLogger())
			got, err := c.Refresh(context.Background(), "r1")

			switch {
			case tt.wantErrIs != nil:
				require.ErrorIs(t, err, tt.wantErrIs)
			case tt.wantErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClient_Refresh_UpstreamMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"message":"maintenance"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testutil.MakeNoopLogger())
	_, err := c.Refresh(context.Background(), "r1")

	var upstream *model.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	assert.Equal(t, "maintenance", upstream.Message)
}

func TestClient_Refresh_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, testutil.MakeNoopLogger())
	_, err := c.Refresh(context.Background(), "r1")

	var netErr *model.NetworkError
	require.ErrorAs(t, err, &netErr)
}
