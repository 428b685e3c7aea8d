// Package transport executes single-shot HTTP requests for connection tests.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kpreslar/connectrix/internal/logging"
)

// DefaultTimeout bounds an ordinary test call.
const DefaultTimeout = 10 * time.Second

// Request describes one outbound HTTP call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration // DefaultTimeout when zero
}

// Response carries the raw response. JSON holds the best-effort decoded body
// and is nil when the body is not valid JSON; the decode attempt can never
// fail the call.
type Response struct {
	StatusCode int
	Headers    http.Header
	RawBody    string
	JSON       any
}

// Client issues requests with per-request timeouts. It keeps no connections
// alive between calls and implements no retries; each test call is
// single-shot.
type Client struct {
	hc     *http.Client
	logger *zap.Logger
}

// New creates a transport client.
func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		hc: &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
		},
		logger: logger,
	}
}

// Do executes the request and returns exactly one of: a full response, a
// transport error, or a timeout error. On timeout the in-flight request is
// aborted via context cancellation.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out after %s: %w", timeout, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out after %s: %w", timeout, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug("request completed",
		logging.Component("transport"),
		logging.Method(req.Method),
		logging.URL(req.URL),
		logging.StatusCode(resp.StatusCode),
		logging.DurationMS(time.Since(start).Milliseconds()))

	out := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    string(raw),
	}
	var parsed any
	if json.Unmarshal(raw, &parsed) == nil {
		out.JSON = parsed
	}
	return out, nil
}
