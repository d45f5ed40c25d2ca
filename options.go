package resilient

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxAttempts is the number of attempts Fetch makes before giving up.
const DefaultMaxAttempts = 10

// Header names attached to every request unless overridden.
const (
	DefaultTokenHeader     = "X-Access-Token"
	DefaultRequestIDHeader = "X-Request-ID"
)

// Option configures a Client.
type Option func(*config)

// EndpointFunc maps a request path to an absolute URL.
type EndpointFunc func(path string) string

type config struct {
	baseURL          string
	endpoint         EndpointFunc
	rps              float64
	burst            int
	adaptiveCooldown time.Duration
	maxResponseSize  int64
	timeout          time.Duration
	maxAttempts      int
	httpClient       *http.Client

	tokens          TokenSource
	tokenHeader     string
	requestIDHeader string

	logger zerolog.Logger

	onError       func(statusCode int, req *http.Request)
	onSuccess     func(req *http.Request, resp *http.Response)
	onRateLimited func(req *http.Request)

	requestHook  func(req *http.Request)
	responseHook func(resp *http.Response)
}

func defaultConfig() *config {
	return &config{
		rps:              0, // no rate limiting by default
		burst:            1,
		adaptiveCooldown: 5 * time.Minute,
		maxResponseSize:  10 * 1024 * 1024, // 10 MB
		timeout:          30 * time.Second,
		maxAttempts:      DefaultMaxAttempts,
		tokenHeader:      DefaultTokenHeader,
		requestIDHeader:  DefaultRequestIDHeader,
		logger:           zerolog.Nop(),
	}
}

// WithBaseURL sets the prefix request paths are joined to.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithEndpoint sets a custom path-to-URL mapping, e.g. to insert an API
// version segment. It takes precedence over WithBaseURL.
func WithEndpoint(fn EndpointFunc) Option {
	return func(c *config) { c.endpoint = fn }
}

// WithRateLimit sets the token bucket rate limit in requests per second and burst size.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) {
		c.rps = rps
		if burst > 0 {
			c.burst = burst
		}
	}
}

// WithMaxAttempts sets how many times Fetch runs an attempt before returning
// the last error. Values below 1 mean a single attempt.
func WithMaxAttempts(n int) Option {
	return func(c *config) { c.maxAttempts = n }
}

// WithAdaptive sets the cooldown duration for adaptive rate reduction.
// When a 429 response is received, the rate is halved and restored
// after this duration or the server's Retry-After hint, whichever is longer.
func WithAdaptive(cooldown time.Duration) Option {
	return func(c *config) { c.adaptiveCooldown = cooldown }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithMaxResponseSize sets the maximum response body size in bytes. Larger
// bodies fail the attempt with KindResponseBroken.
func WithMaxResponseSize(n int64) Option {
	return func(c *config) { c.maxResponseSize = n }
}

// WithHTTPClient sets a custom underlying *http.Client.
// The timeout option is ignored when a custom client is provided.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithAccessToken sends token in the access token header of every request.
// Without WithAccessToken or WithTokenSource no token header is sent.
func WithAccessToken(token string) Option {
	return WithTokenSource(StaticToken(token))
}

// WithTokenSource resolves the access token before every dispatch. A lookup
// error fails the attempt with KindTransport.
func WithTokenSource(ts TokenSource) Option {
	return func(c *config) { c.tokens = ts }
}

// WithTokenHeader sets the header carrying the access token.
func WithTokenHeader(name string) Option {
	return func(c *config) {
		if name != "" {
			c.tokenHeader = name
		}
	}
}

// WithRequestIDHeader sets the header carrying a fresh UUID per dispatch.
// An empty name disables it.
func WithRequestIDHeader(name string) Option {
	return func(c *config) { c.requestIDHeader = name }
}

// WithLogger sets the logger used for request/response debug events and
// final fetch failures.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOnError sets a callback invoked on responses with status >= 400.
func WithOnError(fn func(statusCode int, req *http.Request)) Option {
	return func(c *config) { c.onError = fn }
}

// WithOnSuccess sets a callback invoked on responses with status < 400.
func WithOnSuccess(fn func(req *http.Request, resp *http.Response)) Option {
	return func(c *config) { c.onSuccess = fn }
}

// WithOnRateLimited sets a callback invoked when a rate-limit response is received.
func WithOnRateLimited(fn func(req *http.Request)) Option {
	return func(c *config) { c.onRateLimited = fn }
}

// WithRequestHook sets a hook called before each request is sent.
func WithRequestHook(fn func(req *http.Request)) Option {
	return func(c *config) { c.requestHook = fn }
}

// WithResponseHook sets a hook called after each response is received.
func WithResponseHook(fn func(resp *http.Response)) Option {
	return func(c *config) { c.responseHook = fn }
}
