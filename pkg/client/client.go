// Package client talks to the task scoring service. It submits task lists to
// the analyze and suggest endpoints and decodes whatever JSON comes back into
// a response.Response.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
)

const (
	AnalyzePath = "/api/tasks/analyze/"
	SuggestPath = "/api/tasks/suggest/"
)

// RequestIDHeader carries a per-request id for log correlation.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 10 << 20

// Client is a typed client for the scoring service.
type Client struct {
	baseURL   string
	http      *http.Client
	logger    *zap.Logger
	userAgent string
	timeout   time.Duration
	retryCfg  retry.Config
}

// New creates a client. Without options it targets DefaultBaseURL, makes a
// single attempt per call and gives up after 30 seconds.
func New(opts ...Option) *Client {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		baseURL:   strings.TrimRight(o.baseURL, "/"),
		http:      o.httpClient,
		logger:    o.logger,
		userAgent: o.userAgent,
		timeout:   o.timeout,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type analyzeRequest struct {
	Tasks    json.RawMessage `json:"tasks"`
	Strategy string          `json:"strategy"`
}

// Analyze submits tasks with a strategy, wrapped as {"tasks", "strategy"}.
func (c *Client) Analyze(ctx context.Context, tasks json.RawMessage, strategy string) (response.Response, error) {
	body, err := json.Marshal(analyzeRequest{Tasks: tasks, Strategy: strategy})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}
	return c.post(ctx, AnalyzePath, body)
}

// Suggest submits the parsed input as the request body, unwrapped.
func (c *Client) Suggest(ctx context.Context, tasks json.RawMessage) (response.Response, error) {
	var body bytes.Buffer
	if err := json.Compact(&body, tasks); err != nil {
		return nil, fmt.Errorf("encode suggest request: %w", err)
	}
	return c.post(ctx, SuggestPath, body.Bytes())
}

// post sends body and decodes the reply. The status code is not inspected:
// the service reports logical errors as JSON bodies on 4xx/5xx.
func (c *Client) post(ctx context.Context, path string, body []byte) (response.Response, error) {
	requestID := uuid.New().String()
	log := c.logger.With(zap.String("endpoint", path), zap.String("request_id", requestID))
	start := time.Now()

	// last holds the most recent attempt's failure.
	var last atomic.Pointer[TransportError]
	call := func(ctx context.Context) ([]byte, error) {
		r := retry.New[[]byte](c.retryCfg)
		return r.Do(ctx, func(ctx context.Context) ([]byte, error) {
			data, err := c.send(ctx, path, requestID, body)
			if err != nil {
				last.Store(err)
				return nil, err
			}
			return data, nil
		})
	}

	var (
		raw []byte
		err error
	)
	if c.timeout > 0 {
		t := timeout.New[[]byte](timeout.Config{DefaultTimeout: c.timeout})
		raw, err = t.Execute(ctx, c.timeout, call)
	} else {
		raw, err = call(ctx)
	}
	if err != nil {
		log.Warn("scoring request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		var te *TransportError
		if errors.As(err, &te) {
			return nil, te
		}
		if te := last.Load(); te != nil && ctx.Err() == nil {
			return nil, te
		}
		return nil, &TransportError{Endpoint: path, Err: err}
	}

	resp := response.Decode(raw)
	log.Debug("scoring request completed",
		zap.String("kind", string(resp.Kind())),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (c *Client) send(ctx context.Context, path, requestID string, body []byte) ([]byte, *TransportError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: fmt.Errorf("send request: %w", err)}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Endpoint: path, StatusCode: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if !json.Valid(data) {
		return nil, &TransportError{Endpoint: path, StatusCode: res.StatusCode, Err: ErrNonJSONResponse}
	}
	return data, nil
}
