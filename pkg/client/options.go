package client

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is where the scoring service listens in a local setup.
const DefaultBaseURL = "http://127.0.0.1:8000"

type options struct {
	baseURL      string
	timeout      time.Duration
	maxAttempts  int
	initialDelay time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
	userAgent    string
}

func defaultOptions() options {
	return options{
		baseURL:      DefaultBaseURL,
		timeout:      30 * time.Second,
		maxAttempts:  1,
		initialDelay: 500 * time.Millisecond,
		httpClient:   &http.Client{},
		logger:       zap.NewNop(),
		userAgent:    "triage/dev",
	}
}

// Option configures the client.
type Option func(*options)

// WithBaseURL sets the scheme and host of the scoring service.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithTimeout sets the per-call timeout. Zero waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetry configures retry behaviour. maxAttempts of 1 disables retries.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		o.maxAttempts = maxAttempts
		o.initialDelay = initialDelay
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}
