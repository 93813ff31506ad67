// Package identity talks to the identity service that renews token pairs.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/model"
)

const maxResponseSize = 1 << 20

var _ model.Refresher = (*Client)(nil)

// Client performs the refresh operation against the identity service:
// POST {"refresh": "..."} -> {"access": "...", "refresh": "..."}.
type Client struct {
	refreshURL string
	hc         *http.Client
	logger     *logger.Logger
}

// NewClient creates a new identity Client posting to refreshURL.
func NewClient(refreshURL string, timeout time.Duration, logger *logger.Logger) *Client {
	return &Client{
		refreshURL: refreshURL,
		hc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger: logger,
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type errorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Code    string `json:"code"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

// Refresh exchanges refreshToken for a new pair. A 400/401 answer wraps
// model.ErrRefreshRejected; a pair missing either token wraps
// model.ErrMalformedTokenPair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return model.TokenPair{}, &model.NetworkError{Op: "refresh", URL: req.URL.Redacted(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		upstream := &model.UpstreamError{StatusCode: resp.StatusCode, Message: errResp.text()}

		c.logger.Warn("Identity client: refresh rejected",
			"status", resp.StatusCode,
			"code", errResp.Code)

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			return model.TokenPair{}, errors.Join(model.ErrRefreshRejected, upstream)
		}
		return model.TokenPair{}, upstream
	}

	var pair model.TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to parse refresh response: %w: %w", model.ErrMalformedTokenPair, err)
	}
	if err := pair.Validate(); err != nil {
		return model.TokenPair{}, fmt.Errorf("refresh response: %w", err)
	}

	return pair, nil
}
