package web

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/triage/internal/infrastructure/dispatch"
	"github.com/felixgeelhaar/triage/internal/infrastructure/render"
	"github.com/felixgeelhaar/triage/pkg/client"
)

// newBackend fakes the scoring service and records the last request body.
func newBackend(t *testing.T, status int, body string) (*httptest.Server, func() string) {
	t.Helper()
	var last atomic.Value
	last.Store("")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		last.Store(r.URL.Path + " " + string(data))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, func() string { return last.Load().(string) }
}

func newTestServer(t *testing.T, baseURL string) *Server {
	t.Helper()
	html, err := render.NewHTMLRenderer()
	require.NoError(t, err)
	d := dispatch.NewDispatcher(client.New(client.WithBaseURL(baseURL)), html, nil, nil)
	s, err := NewServer("127.0.0.1:0", d, "", nil)
	require.NoError(t, err)
	return s
}

func post(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="taskInput"`)
	assert.Contains(t, body, `formaction="/analyze"`)
	assert.Contains(t, body, `formaction="/suggest"`)
	assert.Contains(t, body, `<option value="smart" selected>Smart Balance</option>`)
	assert.Contains(t, body, `<div id="results" data-version="0"></div>`)
}

func TestHandleAnalyze(t *testing.T) {
	backend, last := newBackend(t, http.StatusOK,
		`[{"title":"Write report","due_date":"2025-01-31","estimated_hours":3,"importance":8,"score":85}]`)
	s := newTestServer(t, backend.URL)

	rec := post(t, s, "/analyze", url.Values{
		"tasks":    {`[{"title":"Write report","due_date":"2025-01-31"}]`},
		"strategy": {"deadline"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, last(), client.AnalyzePath)
	assert.Contains(t, last(), `"strategy":"deadline"`)

	body := rec.Body.String()
	assert.Contains(t, body, `class="task-card"`)
	assert.Contains(t, body, `<span class="priority-tag high">HIGH</span>`)
	assert.Contains(t, body, `<option value="deadline" selected>Deadline Driven</option>`)
	assert.NotContains(t, body, `role="alert"`)
}

func TestHandleSuggest(t *testing.T) {
	backend, last := newBackend(t, http.StatusOK,
		`{"explanation":"These tasks are suggested for today","tasks":[{"title":"Pay rent","score":55}]}`)
	s := newTestServer(t, backend.URL)

	rec := post(t, s, "/suggest", url.Values{"tasks": {`[{"title":"Pay rent"}]`}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, last(), client.SuggestPath+` [{"title":"Pay rent"}]`)
	body := rec.Body.String()
	assert.Contains(t, body, "<strong>These tasks are suggested for today</strong>")
	assert.Contains(t, body, `<span class="priority-tag medium">MEDIUM</span>`)
}

func TestHandleAnalyze_ServerErrorIsRendered(t *testing.T) {
	backend, _ := newBackend(t, http.StatusBadRequest,
		`{"error":["Task 1 is missing required fields: due_date"]}`)
	s := newTestServer(t, backend.URL)

	rec := post(t, s, "/analyze", url.Values{"tasks": {`[{"title":"x"}]`}})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `class="error-box"`)
	assert.Contains(t, body, "Task 1 is missing required fields: due_date")
	assert.NotContains(t, body, `class="task-card"`)
}

func TestHandleAnalyze_InvalidInputKeepsResults(t *testing.T) {
	backend, _ := newBackend(t, http.StatusOK, `[{"title":"Kept","score":20}]`)
	s := newTestServer(t, backend.URL)

	rec := post(t, s, "/analyze", url.Values{"tasks": {`[]`}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = post(t, s, "/analyze", url.Values{"tasks": {`[{"title": }`}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, AlertMessage)
	assert.Contains(t, body, "Kept", "previous results stay on the page")
	assert.Contains(t, body, "[{&#34;title&#34;: }", "submitted input is echoed back escaped")
}

func TestHandleAnalyze_TransportErrorShowsAlert(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer backend.Close()
	s := newTestServer(t, backend.URL)

	rec := post(t, s, "/analyze", url.Values{"tasks": {`[]`}})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), AlertMessage)
	assert.Contains(t, rec.Body.String(), `<div id="results" data-version="0"></div>`)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, dispatch.StateIdle, got["state"])
}

func TestHandleResults(t *testing.T) {
	backend, _ := newBackend(t, http.StatusOK, `[{"title":"Only","score":50}]`)
	s := newTestServer(t, backend.URL)
	require.Equal(t, http.StatusOK, post(t, s, "/analyze", url.Values{"tasks": {`[]`}}).Code)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Region-Version"))
	assert.Contains(t, rec.Body.String(), `class="task-card"`)
	assert.NotContains(t, rec.Body.String(), "<html")
}

func TestHandleEvents_FollowsRegion(t *testing.T) {
	backend, _ := newBackend(t, http.StatusOK, `[]`)
	s := newTestServer(t, backend.URL)
	page := httptest.NewServer(s.Handler())
	defer page.Close()

	resp, err := http.Get(page.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := bufio.NewReader(resp.Body)
	assert.Equal(t, `data: {"version":0}`, dataLine(t, body))

	require.Equal(t, http.StatusOK, post(t, s, "/analyze", url.Values{"tasks": {`[]`}}).Code)
	assert.Equal(t, `data: {"version":1}`, dataLine(t, body))

	require.NoError(t, s.Shutdown(t.Context()))
}

func dataLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(line)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plan", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStrategyOptions_KeepsCustomStrategy(t *testing.T) {
	options := strategyOptions("balanced")
	require.Len(t, options, 5)
	assert.Equal(t, StrategyOption{Value: "balanced", Label: "balanced", Selected: true}, options[4])
	for _, o := range options[:4] {
		assert.False(t, o.Selected)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	require.NoError(t, s.Shutdown(t.Context()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}
