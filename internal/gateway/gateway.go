// Package gateway issues authenticated requests to the backend and keeps the
// session's token pair alive across access token expiry.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/metrics"
	"github.com/dtroode/agentconsole/internal/model"
)

// maxErrorBodySize caps how much of a 401 body is read for classification.
const maxErrorBodySize = 64 << 10

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway attaches the bearer access token to outgoing requests and, when the
// backend reports the access token as expired, refreshes the pair once through
// its Coordinator and re-issues the request.
type Gateway struct {
	client      Doer
	coordinator *Coordinator
	logger      *logger.Logger
}

// New creates a Gateway. A nil client means http.DefaultClient.
func New(client Doer, coordinator *Coordinator, logger *logger.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{client: client, coordinator: coordinator, logger: logger}
}

// Request builds a request from its parts and sends it with Do.
func (g *Gateway) Request(ctx context.Context, method, url string, body []byte, header http.Header, pair model.TokenPair) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return g.Do(req, pair)
}

// Do sends req with pair.Access as bearer token.
//
// A 401 whose body is the access-token-expired signal triggers one refresh and
// one retry; the retried response is returned whatever its status. Every other
// response, including other 401s and 403s, is returned untouched. A failed
// refresh yields *model.SessionExpiredError. The caller owns the returned body.
func (g *Gateway) Do(req *http.Request, pair model.TokenPair) (*http.Response, error) {
	if err := makeReplayable(req); err != nil {
		return nil, err
	}

	resp, err := g.send(req, pair.Access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	body, err := peekBody(resp)
	if err != nil {
		_ = resp.Body.Close()
		return nil, &model.NetworkError{Op: "read", URL: req.URL.String(), Err: err}
	}
	if !IsExpired(body) {
		return resp, nil
	}
	_ = resp.Body.Close()

	g.logger.Debug("Gateway: access token expired",
		"method", req.Method,
		"url", req.URL.Redacted())

	fresh, err := g.coordinator.RefreshOnce(req.Context(), pair.Refresh)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, &model.SessionExpiredError{Err: err}
	}

	metrics.RetriesTotal.Inc()
	return g.send(req, fresh.Access)
}

func (g *Gateway) send(req *http.Request, access string) (*http.Response, error) {
	attempt := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		attempt.Body = body
	}
	attempt.Header.Set("Authorization", "Bearer "+access)

	resp, err := g.client.Do(attempt)
	if err != nil {
		return nil, &model.NetworkError{Op: req.Method, URL: req.URL.Redacted(), Err: err}
	}
	return resp, nil
}

// makeReplayable makes sure the request body can be sent twice.
func makeReplayable(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}
	buf, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to buffer request body: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	req.Body, _ = req.GetBody()
	req.ContentLength = int64(len(buf))
	return nil
}

// peekBody reads the head of resp.Body and puts it back, so the caller still
// receives the full, unread body.
func peekBody(resp *http.Response) ([]byte, error) {
	head, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return nil, err
	}
	resp.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(head), resp.Body),
		Closer: resp.Body,
	}
	return head, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
