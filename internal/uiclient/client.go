// Package uiclient talks to a running agechess server.
package uiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

const SessionHeader = "X-Session-Id"

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status int
	Body   uidto.Error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agechess api error: status=%d code=%s: %s", e.Status, e.Body.Code, e.Body.Error())
}

type Client struct {
	baseURL string
	http    *fasthttp.Client

	mu        sync.RWMutex
	sessionID string

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithSession reuses an existing session id.
func WithSession(id string) Option {
	return func(c *Client) { c.sessionID = strings.TrimSpace(id) }
}

// WithDialer replaces the tcp dialer, mostly for in-memory listeners.
func WithDialer(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID is the id the server last assigned, empty before the first call.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) State(ctx context.Context) (*uidto.State, error) {
	var st uidto.State
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/state", nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Click(ctx context.Context, square string) (*uidto.State, error) {
	var st uidto.State
	path := "/api/click/" + url.PathEscape(strings.TrimSpace(square))
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, nil, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Move(ctx context.Context, from, to string) (*uidto.State, error) {
	var st uidto.State
	req := uidto.MoveRequest{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/move", req, &st, false); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Reset(ctx context.Context) (*uidto.State, error) {
	var st uidto.State
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/reset", nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Themes(ctx context.Context) ([]uidto.ThemeSummary, error) {
	var resp uidto.ThemesResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/themes", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Themes, nil
}

func (c *Client) SetTheme(ctx context.Context, id string) (*uidto.State, error) {
	var st uidto.State
	path := "/api/theme/" + url.PathEscape(strings.TrimSpace(id))
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

// BoardPNG downloads the rendered board.
func (c *Client) BoardPNG(ctx context.Context) ([]byte, error) {
	var out []byte
	err := c.do(ctx, fasthttp.MethodGet, "/api/board.png", nil, true, func(resp *fasthttp.Response) error {
		out = append([]byte(nil), resp.Body()...)
		return nil
	})
	return out, err
}

func (c *Client) Health(ctx context.Context) (*uidto.Health, error) {
	var h uidto.Health
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/healthz", nil, &h, true); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = b
	}
	return c.do(ctx, method, path, payload, retry, func(resp *fasthttp.Response) error {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, retry bool, onOK func(*fasthttp.Response) error) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}
	if sid := c.SessionID(); sid != "" {
		req.Header.Set(SessionHeader, sid)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if sid := strings.TrimSpace(string(resp.Header.Peek(SessionHeader))); sid != "" {
			c.mu.Lock()
			c.sessionID = sid
			c.mu.Unlock()
			req.Header.Set(SessionHeader, sid)
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			if jerr := json.Unmarshal(resp.Body(), &apiErr.Body); jerr != nil {
				apiErr.Body = uidto.Error{Code: uidto.CodeInternal, Message: truncate(string(resp.Body()), 512)}
			}
			lastErr = apiErr
			if attempt == attempts || !shouldRetryStatus(status) {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}
		return onOK(resp)
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
