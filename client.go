package resilient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Stats holds atomic request counters.
type Stats struct {
	// TotalRequests counts dispatches, one per attempt.
	TotalRequests uint64
	// TotalErrors counts failed attempts of any kind.
	TotalErrors uint64
	// RateLimited counts 429 responses.
	RateLimited uint64
}

// StatsProvider exposes metrics for external collectors (see package promstats).
type StatsProvider interface {
	Stats() Stats
}

// Client dispatches REST requests and backs Fetch. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        *config

	mu            sync.Mutex
	originalRate  rate.Limit
	adaptiveTimer *time.Timer
	closed        bool

	totalReqs   atomic.Uint64
	totalErrors atomic.Uint64
	rateLimited atomic.Uint64
}

// Compile-time interface check.
var _ StatsProvider = (*Client)(nil)

// New creates a new Client with the given options. The access token header
// is attached only when WithAccessToken or WithTokenSource is given.
func New(opts ...Option) *Client {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	var lim *rate.Limiter
	if cfg.rps > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.rps), cfg.burst)
	}

	return &Client{
		httpClient:   hc,
		limiter:      lim,
		cfg:          cfg,
		originalRate: rate.Limit(cfg.rps),
	}
}

// Close releases resources held by the client (adaptive timer, etc.).
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.adaptiveTimer != nil {
		c.adaptiveTimer.Stop()
		c.adaptiveTimer = nil
	}
}

// Stats returns a snapshot of request statistics.
func (c *Client) Stats() Stats {
	return Stats{
		TotalRequests: c.totalReqs.Load(),
		TotalErrors:   c.totalErrors.Load(),
		RateLimited:   c.rateLimited.Load(),
	}
}

// SetRateLimit dynamically adjusts the rate limit.
func (c *Client) SetRateLimit(rps float64, burst int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	newRate := rate.Limit(rps)
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(newRate, burst)
	} else {
		c.limiter.SetLimit(newRate)
		c.limiter.SetBurst(burst)
	}
	c.originalRate = newRate
}

// Response is the raw outcome of a single dispatch.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do dispatches req exactly once. It fails with KindTransport when the call
// cannot be completed and KindResponseBroken when the body cannot be read.
// Any HTTP status is a successful dispatch.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		c.totalErrors.Add(1)
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, newError(KindTransport, fmt.Errorf("rate limit wait: %w", err))
	}

	httpReq, reqID, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, newError(KindTransport, err)
	}

	if c.cfg.requestHook != nil {
		c.cfg.requestHook(httpReq)
	}

	c.totalReqs.Add(1)
	c.cfg.logger.Debug().
		Str("method", httpReq.Method).
		Str("url", httpReq.URL.String()).
		Str("request_id", reqID).
		Msg("REST client request")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.cfg.logger.Debug().Err(err).
			Str("method", httpReq.Method).
			Str("request_id", reqID).
			Dur("elapsed", time.Since(start)).
			Msg("REST client request failed")
		return nil, newError(KindTransport, fmt.Errorf("http request: %w", err))
	}

	if c.cfg.responseHook != nil {
		c.cfg.responseHook(resp)
	}

	body, err := c.readBody(resp)
	if err != nil {
		return nil, newError(KindResponseBroken, err)
	}

	c.observeStatus(httpReq, resp)

	c.cfg.logger.Debug().
		Str("method", httpReq.Method).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("REST client response")

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, string, error) {
	if req.method == "" {
		return nil, "", fmt.Errorf("request has no method")
	}

	target, err := c.resolve(req)
	if err != nil {
		return nil, "", err
	}

	var body io.Reader
	if req.hasBody {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if c.cfg.tokens != nil {
		token, err := c.cfg.tokens.AccessToken(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("access token: %w", err)
		}
		httpReq.Header.Set(c.cfg.tokenHeader, token)
	}

	var reqID string
	if c.cfg.requestIDHeader != "" {
		reqID = uuid.NewString()
		httpReq.Header.Set(c.cfg.requestIDHeader, reqID)
	}
	return httpReq, reqID, nil
}

// resolve builds the absolute URL of req including its query parameters.
func (c *Client) resolve(req Request) (string, error) {
	var raw string
	if c.cfg.endpoint != nil {
		raw = c.cfg.endpoint(req.path)
	} else {
		raw = joinURL(c.cfg.baseURL, req.path)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("endpoint url: %w", err)
	}
	if len(req.query) > 0 {
		q := u.Query()
		for k, v := range req.query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func joinURL(base, path string) string {
	switch {
	case base == "":
		return path
	case path == "":
		return base
	default:
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	limit := c.cfg.maxResponseSize
	if limit <= 0 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return body, nil
}

func (c *Client) observeStatus(req *http.Request, resp *http.Response) {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.rateLimited.Add(1)
		if c.cfg.onRateLimited != nil {
			c.cfg.onRateLimited(req)
		}
		if c.cfg.onError != nil {
			c.cfg.onError(resp.StatusCode, req)
		}
		c.reduceRateLimit(parseRetryAfter(resp.Header.Get("Retry-After")))
	case resp.StatusCode >= 400:
		if c.cfg.onError != nil {
			c.cfg.onError(resp.StatusCode, req)
		}
	default:
		if c.cfg.onSuccess != nil {
			c.cfg.onSuccess(req, resp)
		}
	}
}

// --- internal helpers ---

func (c *Client) waitRateLimit(ctx context.Context) error {
	c.mu.Lock()
	lim := c.limiter
	c.mu.Unlock()
	if lim == nil {
		return nil
	}
	return lim.Wait(ctx)
}

// reduceRateLimit halves the rate and schedules its restoration after the
// adaptive cooldown or retryAfter, whichever is longer.
func (c *Client) reduceRateLimit(retryAfter time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limiter == nil || c.closed {
		return
	}

	reduced := c.originalRate / 2
	if reduced < 0.01 {
		reduced = 0.01
	}
	c.limiter.SetLimit(reduced)

	cooldown := max(c.cfg.adaptiveCooldown, retryAfter)
	if c.adaptiveTimer != nil {
		c.adaptiveTimer.Stop()
	}
	c.adaptiveTimer = time.AfterFunc(cooldown, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.closed && c.limiter != nil {
			c.limiter.SetLimit(c.originalRate)
		}
	})
}

// parseRetryAfter parses the Retry-After header value.
// It supports both seconds (integer) and HTTP-date formats.
// Returns the duration to wait, or 0 if unparseable.
func parseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	val = strings.TrimSpace(val)

	if secs, err := strconv.ParseFloat(val, 64); err == nil && secs >= 0 && !math.IsInf(secs, 1) {
		return time.Duration(math.Ceil(secs)) * time.Second
	}

	for _, layout := range []string{
		time.RFC1123,
		time.RFC850,
		"Mon Jan _2 15:04:05 2006",
	} {
		if t, err := time.Parse(layout, val); err == nil {
			d := time.Until(t)
			if d < 0 {
				return 0
			}
			return d
		}
	}
	return 0
}
