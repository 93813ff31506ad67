// Package client calls the console API on behalf of an agent, refreshing the
// token pair through the gateway when the access token expires.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dtroode/agentconsole/internal/gateway"
)

// maxResponseSize caps the body read into a Response.
const maxResponseSize = 8 << 20

// Response is a fully read console response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

type Client struct {
	baseURL string
	gateway *gateway.Gateway
	holder  *Holder
}

// New creates a Client. holder must be the sink of the gateway's coordinator
// so that refreshed pairs are used by later calls.
func New(baseURL string, gw *gateway.Gateway, holder *Holder) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		gateway: gw,
		holder:  holder,
	}
}

// Do sends method to path relative to the console base URL. A non-nil body is
// sent as JSON.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (Response, error) {
	var header http.Header
	if body != nil {
		header = http.Header{"Content-Type": []string{"application/json"}}
	}

	resp, err := c.gateway.Request(ctx, method, c.url(path), body, header, c.holder.Pair())
	if err != nil {
		return Response{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
