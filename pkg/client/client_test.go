package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
)

type captured struct {
	path    string
	body    []byte
	headers http.Header
}

func newServer(t *testing.T, status int, reply string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			got.body, _ = io.ReadAll(r.Body)
			got.headers = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyze_WrapsTasksAndStrategy(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `[{"title":"a","score":90}]`, &got)

	c := New(WithBaseURL(srv.URL))
	resp, err := c.Analyze(context.Background(), json.RawMessage(`[{"title":"a","due_date":"2025-01-01"}]`), "fastest")
	require.NoError(t, err)

	assert.Equal(t, AnalyzePath, got.path)
	assert.JSONEq(t, `{"tasks":[{"title":"a","due_date":"2025-01-01"}],"strategy":"fastest"}`, string(got.body))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.NotEmpty(t, got.headers.Get(RequestIDHeader))

	result, ok := resp.(response.AnalysisResult)
	require.True(t, ok, "expected AnalysisResult, got %T", resp)
	assert.Len(t, result.Tasks, 1)
}

func TestSuggest_SendsRawInput(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"tasks":[],"explanation":"nothing urgent"}`, &got)

	c := New(WithBaseURL(srv.URL + "/"))
	resp, err := c.Suggest(context.Background(), json.RawMessage("[ {\"title\": \"a\"} ]"))
	require.NoError(t, err)

	assert.Equal(t, SuggestPath, got.path)
	assert.Equal(t, `[{"title":"a"}]`, string(got.body))
	assert.Equal(t, response.KindSuggest, resp.Kind())
}

func TestPost_ErrorStatusStillDecoded(t *testing.T) {
	srv := newServer(t, http.StatusBadRequest, `{"error":["Task 1 is missing required fields: due_date"]}`, nil)

	resp, err := New(WithBaseURL(srv.URL)).Analyze(context.Background(), json.RawMessage(`[{}]`), "smart")
	require.NoError(t, err)

	e, ok := resp.(response.Error)
	require.True(t, ok)
	assert.True(t, e.List)
	assert.Equal(t, []string{"Task 1 is missing required fields: due_date"}, e.Messages)
}

func TestPost_NonJSONIsTransportError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `<html>Server Error</html>`, nil)

	_, err := New(WithBaseURL(srv.URL)).Suggest(context.Background(), json.RawMessage(`[]`))
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.ErrorIs(t, err, ErrNonJSONResponse)
}

func TestPost_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(WithBaseURL(url)).Analyze(context.Background(), json.RawMessage(`[]`), "smart")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, AnalyzePath, te.Endpoint)
}

func TestPost_RetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = io.WriteString(w, "not json")
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithRetry(2, time.Millisecond))
	_, err := c.Analyze(context.Background(), json.RawMessage(`[]`), "smart")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPost_SingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Analyze(context.Background(), json.RawMessage(`[]`), "smart")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPost_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	_, err := c.Analyze(context.Background(), json.RawMessage(`[]`), "smart")
	require.Error(t, err)
}

func TestPost_CancelledContext(t *testing.T) {
	srv := newServer(t, http.StatusOK, `[]`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithBaseURL(srv.URL)).Analyze(ctx, json.RawMessage(`[]`), "smart")
	require.Error(t, err)
}

func TestSuggest_InvalidInput(t *testing.T) {
	_, err := New().Suggest(context.Background(), json.RawMessage(`{oops`))
	require.Error(t, err)
	var te *TransportError
	assert.False(t, errors.As(err, &te), "invalid input is not a transport failure")
}
