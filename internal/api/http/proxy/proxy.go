// Package proxy forwards console API calls to the backend with the session's
// access token. It never refreshes: an upstream 401 is relayed as-is and the
// client-side gateway takes care of refresh and retry.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/metrics"
	"github.com/dtroode/agentconsole/internal/model"
)

// Upstream timeouts per route weight.
const (
	LightTimeout = 30 * time.Second
	HeavyTimeout = 60 * time.Second
)

// StatusClientClosedRequest is reported when the caller went away before the
// upstream answered.
const StatusClientClosedRequest = 499

// Failure classes, also used as metric labels.
const (
	ClassTimeout     = "timeout"
	ClassUnavailable = "unavailable"
	ClassBadGateway  = "bad_gateway"
	ClassCanceled    = "canceled"
)

// ErrorBody is the body written for forwarding failures.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Route describes one forwarded endpoint.
type Route struct {
	// Name labels logs and metrics.
	Name string
	// Upstream is the backend path. A trailing chi wildcard of the matched
	// pattern is appended to it.
	Upstream string
	Timeout  time.Duration
}

type Client struct {
	baseURL string
	hc      *http.Client
	ctx     model.ContextManager
	logger  *logger.Logger
}

// New creates a forwarding Client. Timeouts are applied per route, so the
// underlying http.Client has none.
func New(baseURL string, ctxManager model.ContextManager, logger *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		ctx:    ctxManager,
		logger: logger,
	}
}

// WithHTTPClient replaces the transport client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.hc = hc
	return c
}

// Forward returns a handler that relays the request to route.Upstream with the
// bearer access token of the request's session.
func (c *Client) Forward(route Route) http.HandlerFunc {
	timeout := route.Timeout
	if timeout <= 0 {
		timeout = LightTimeout
	}

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		pair, ok := c.ctx.GetTokensFromContext(r.Context())
		if !ok {
			WriteDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, r.Method, c.upstreamURL(route, r), r.Body)
		if err != nil {
			c.fail(w, r, route, err)
			return
		}
		req.ContentLength = r.ContentLength
		copyHeaders(req.Header, r.Header)
		if req.Header.Get("Content-Type") == "" && r.ContentLength != 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		if rid := chimw.GetReqID(r.Context()); rid != "" {
			req.Header.Set("X-Request-Id", rid)
		}
		req.Header.Set("Authorization", "Bearer "+pair.Access)

		resp, err := c.hc.Do(req)
		if err != nil {
			c.fail(w, r, route, err)
			return
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		for k, vs := range resp.Header {
			if isHopByHop(k) {
				continue
			}
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			c.logger.Warn("Proxy: failed to relay upstream body",
				"route", route.Name,
				"error", err)
		}

		metrics.ProxyRequestsTotal.WithLabelValues(route.Name, strconv.Itoa(resp.StatusCode)).Inc()
		c.logger.Debug("Proxy: forwarded",
			"route", route.Name,
			"method", r.Method,
			"status", resp.StatusCode,
			"duration", time.Since(start))
	}
}

func (c *Client) upstreamURL(route Route, r *http.Request) string {
	u := c.baseURL + route.Upstream
	if rest := chi.URLParam(r, "*"); rest != "" {
		u = strings.TrimRight(u, "/") + "/" + rest
	}
	if qs := r.URL.RawQuery; qs != "" {
		u += "?" + qs
	}
	return u
}

func (c *Client) fail(w http.ResponseWriter, r *http.Request, route Route, err error) {
	status, class := Classify(r.Context(), err)
	metrics.ProxyFailuresTotal.WithLabelValues(route.Name, class).Inc()
	c.logger.Warn("Proxy: upstream request failed",
		"route", route.Name,
		"method", r.Method,
		"class", class,
		"error", err)
	WriteDetail(w, status, upstreamMessage(err))
}

// Classify maps a transport error to the status reported to the caller:
// timeout 504, refused connection or unknown host 503, anything else 502.
// parent is the inbound request context, which tells a caller hang-up apart
// from an upstream timeout.
func Classify(parent context.Context, err error) (int, string) {
	if parent != nil && errors.Is(parent.Err(), context.Canceled) {
		return StatusClientClosedRequest, ClassCanceled
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return http.StatusGatewayTimeout, ClassTimeout
	}

	var dnsErr *net.DNSError
	if errors.Is(err, syscall.ECONNREFUSED) || (errors.As(err, &dnsErr) && dnsErr.IsNotFound) {
		return http.StatusServiceUnavailable, ClassUnavailable
	}

	return http.StatusBadGateway, ClassBadGateway
}

// upstreamMessage strips the request line that *url.Error prepends.
func upstreamMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// WriteDetail writes {"detail": msg} with status.
func WriteDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Detail: msg})
}

func copyHeaders(dst, src http.Header) {
	for k, vs := range src {
		if isHopByHop(k) || strings.EqualFold(k, "Cookie") || strings.EqualFold(k, "Authorization") {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func isHopByHop(k string) bool {
	switch strings.ToLower(k) {
	case "connection", "keep-alive", "proxy-connection", "proxy-authenticate", "proxy-authorization",
		"transfer-encoding", "upgrade", "te", "trailer", "content-length", "host":
		return true
	}
	return false
}
