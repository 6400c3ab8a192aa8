package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rankedTasks = `[
  {"title": "Fix login bug", "due_date": "2025-01-10", "estimated_hours": 2, "importance": 9, "score": 88},
  {"title": "Write docs", "due_date": "2025-02-01", "estimated_hours": 4, "importance": 5, "score": 61.5},
  {"title": "Clean inbox", "due_date": "2025-03-01", "estimated_hours": 1, "importance": 2, "score": 12}
]`

func TestAnalyzeFromFile(t *testing.T) {
	dir := withTempDir(t)
	var gotBody atomic.Value
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody.Store(r.URL.Path + " " + string(data))
		_, _ = io.WriteString(w, rankedTasks)
	}))
	defer backend.Close()
	t.Setenv("TRIAGE_BASE_URL", backend.URL)

	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title": "Fix login bug", "due_date": "2025-01-10"}]`), 0600))

	out, _, err := runCLI(t, nil, "", "analyze", path, "--strategy", "impact", "--format", "markdown")
	require.NoError(t, err)

	body, _ := gotBody.Load().(string)
	assert.True(t, strings.HasPrefix(body, "/api/tasks/analyze/ "), body)
	assert.Contains(t, body, `"strategy":"impact"`)

	assert.Equal(t, 3, strings.Count(out, "### "))
	assert.Contains(t, out, "`HIGH`")
	assert.Contains(t, out, "`MEDIUM`")
	assert.Contains(t, out, "`LOW`")
	assert.Less(t, strings.Index(out, "Fix login bug"), strings.Index(out, "Clean inbox"))
}

func TestAnalyzeDefaultsToConfiguredStrategy(t *testing.T) {
	withTempDir(t)
	var gotBody atomic.Value
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody.Store(string(data))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer backend.Close()
	t.Setenv("TRIAGE_BASE_URL", backend.URL)
	t.Setenv("TRIAGE_STRATEGY", "deadline")

	_, _, err := runCLI(t, nil, "", "analyze", "--tasks", `[]`)
	require.NoError(t, err)

	var req struct {
		Tasks    json.RawMessage `json:"tasks"`
		Strategy string          `json:"strategy"`
	}
	body, _ := gotBody.Load().(string)
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, "deadline", req.Strategy)
	assert.JSONEq(t, `[]`, string(req.Tasks))
}

func TestSuggestFromStdin(t *testing.T) {
	withTempDir(t)
	newBackend(t, http.StatusOK, `{"explanation": "These tasks are suggested for today based on urgency and overall task score.", "tasks": [{"title": "Pay invoice", "score": 80}]}`)

	out, _, err := runCLI(t, nil, `[{"title": "Pay invoice", "due_date": "2025-01-01"}]`, "suggest", "-", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Kind        string `json:"kind"`
		Explanation string `json:"explanation"`
		Tasks       []struct {
			Title string `json:"title"`
			Tier  string `json:"tier"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "suggestion", doc.Kind)
	assert.Contains(t, doc.Explanation, "suggested for today")
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, "HIGH", doc.Tasks[0].Tier)
}

func TestAnalyzeServerErrorExitsZero(t *testing.T) {
	withTempDir(t)
	newBackend(t, http.StatusBadRequest, `{"error": ["Task 1 is missing required fields: due_date", "Task 2 is missing required fields: title, due_date"]}`)

	out, _, err := runCLI(t, nil, "", "analyze", "--tasks", `[{"title": "x"}, {}]`, "--format", "markdown")
	require.NoError(t, err, "server-reported errors are rendered, not returned")
	assert.Contains(t, out, "**Errors:**")
	assert.Contains(t, out, "- Task 1 is missing required fields: due_date\n")
	assert.Contains(t, out, "- Task 2 is missing required fields: title, due_date\n")
	assert.NotContains(t, out, "### ")
}

func TestAnalyzeUnexpectedResponse(t *testing.T) {
	withTempDir(t)
	newBackend(t, http.StatusOK, `{"foo": "bar"}`)

	out, _, err := runCLI(t, nil, "", "analyze", "--tasks", `[]`, "--format", "markdown")
	require.NoError(t, err)
	assert.Equal(t, "Unexpected response from server.\n", out)
}

func TestAnalyzeInvalidJSONInput(t *testing.T) {
	withTempDir(t)
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `[]`)
	}))
	defer backend.Close()
	t.Setenv("TRIAGE_BASE_URL", backend.URL)

	out, _, err := runCLI(t, nil, "", "analyze", "--tasks", `[{"title": "oops",}]`)
	require.Error(t, err)

	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "invalid task input", cliErr.Message)
	assert.Equal(t, 1, ExitCode(err))
	assert.Empty(t, out)
	assert.Zero(t, calls.Load(), "no request for invalid input")
}

func TestAnalyzeTransportFailure(t *testing.T) {
	withTempDir(t)
	newBackend(t, http.StatusInternalServerError, `<h1>Server Error (500)</h1>`)

	out, _, err := runCLI(t, nil, "", "suggest", "--tasks", `[]`)
	require.Error(t, err)
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "the scoring service returned a non-JSON response", cliErr.Message)
	assert.Empty(t, out)
}

func TestAnalyzeInputSources(t *testing.T) {
	withTempDir(t)
	newBackend(t, http.StatusOK, `[]`)

	_, _, err := runCLI(t, nil, "", "analyze", "missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read task file")

	_, _, err = runCLI(t, nil, "", "analyze", "tasks.json", "--tasks", `[]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both a task file and --tasks")

	_, _, err = runCLI(t, nil, "", "analyze", "--tasks", `[]`, "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch needs a task file")

	_, _, err = runCLI(t, nil, "", "analyze", "--tasks", `[]`, "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestAnalyzeTimeoutFlag(t *testing.T) {
	withTempDir(t)
	release := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer backend.Close()
	defer close(release)
	t.Setenv("TRIAGE_BASE_URL", backend.URL)

	_, _, err := runCLI(t, nil, "", "analyze", "--tasks", `[]`, "--timeout", "50ms")
	require.Error(t, err)
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
}

func TestAnalyzeWatch(t *testing.T) {
	dir := withTempDir(t)
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		_, _ = io.ReadAll(r.Body)
		if n == 1 {
			_, _ = io.WriteString(w, `[{"title": "First run", "score": 10}]`)
			return
		}
		_, _ = io.WriteString(w, `[{"title": "After edit", "score": 95}]`)
	}))
	defer backend.Close()
	t.Setenv("TRIAGE_BASE_URL", backend.URL)

	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for i := 0; i < 100 && calls.Load() < 1; i++ {
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(path, []byte(`[{"title": "After edit"}]`), 0600)
		for i := 0; i < 200 && calls.Load() < 2; i++ {
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	out, stderr, err := runCLI(t, ctx, "", "analyze", path, "--watch", "--debounce", "20ms", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Watching")
	assert.Contains(t, out, "First run")
	assert.Contains(t, out, "After edit")
	assert.Less(t, strings.Index(out, "First run"), strings.Index(out, "After edit"))
}
