// Package web serves the task analyzer page: one textarea, a strategy
// selector, two buttons and one shared results region. Open pages follow the
// region through /events.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/felixgeelhaar/triage/internal/infrastructure/dispatch"
	"github.com/felixgeelhaar/triage/internal/infrastructure/sse"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

//go:embed templates/*
var templatesFS embed.FS

// AlertMessage heads every blocking notification shown above the results.
const AlertMessage = "Invalid JSON or server error."

// Server is the task analyzer HTTP server.
type Server struct {
	addr       string
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
	server     *http.Server
	events     *sse.Handler
	tmpl       *template.Template

	mu       sync.Mutex
	input    string
	strategy scoring.Strategy
}

// NewServer creates a server whose page renders the dispatcher's region.
// The dispatcher must write HTML.
func NewServer(addr string, dispatcher *dispatch.Dispatcher, strategy scoring.Strategy, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if strategy == "" {
		strategy = scoring.DefaultStrategy
	}

	s := &Server{
		addr:       addr,
		dispatcher: dispatcher,
		logger:     logger,
		tmpl:       tmpl,
		strategy:   strategy,
		events:     sse.NewHandler(dispatcher.Region(), logger.Named("sse")),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return s, nil
}

// Handler returns the routes of the page.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /analyze", s.handleTrigger(dispatch.TriggerAnalyze))
	mux.HandleFunc("POST /suggest", s.handleTrigger(dispatch.TriggerSuggest))
	mux.HandleFunc("GET /results", s.handleResults)
	mux.Handle("GET /events", s.events)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start starts the server and blocks until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("task analyzer listening", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open event streams and gracefully shuts down the server. A
// server shut down before Start never begins listening.
func (s *Server) Shutdown(ctx context.Context) error {
	s.events.Close()
	return s.server.Shutdown(ctx)
}

// PageData holds data for template rendering.
type PageData struct {
	Input      string
	Strategies []StrategyOption
	Alert      string
	Results    template.HTML
	Version    uint64
}

// StrategyOption is one entry of the strategy selector.
type StrategyOption struct {
	Value    string
	Label    string
	Selected bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "")
}

func (s *Server) handleTrigger(trigger dispatch.Trigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		input := r.PostFormValue("tasks")
		strategy := scoring.Strategy(r.PostFormValue("strategy"))

		s.mu.Lock()
		if strategy == "" {
			strategy = s.strategy
		}
		s.input = input
		s.strategy = strategy
		s.mu.Unlock()

		err := s.dispatcher.Dispatch(r.Context(), trigger, input, string(strategy))
		switch {
		case err == nil, errors.Is(err, dispatch.ErrSuperseded):
			s.render(w, http.StatusOK, "")
		case errors.Is(err, dispatch.ErrInvalidJSON):
			s.render(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s %v", AlertMessage, err))
		default:
			s.logger.Warn("dispatch failed", zap.String("trigger", string(trigger)), zap.Error(err))
			s.render(w, http.StatusBadGateway, fmt.Sprintf("%s %v", AlertMessage, err))
		}
	}
}

// handleResults returns the region alone, for pages refreshing after an event.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	content, version := s.dispatcher.Region().Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Region-Version", strconv.FormatUint(version, 10))
	_, _ = io.WriteString(w, content)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"state":   s.dispatcher.State(),
		"version": s.dispatcher.Region().Version(),
		"streams": s.events.Clients(),
	})
}

func (s *Server) render(w http.ResponseWriter, status int, alert string) {
	s.mu.Lock()
	data := PageData{
		Input:      s.input,
		Strategies: strategyOptions(s.strategy),
		Alert:      alert,
	}
	s.mu.Unlock()

	content, version := s.dispatcher.Region().Snapshot()
	// #nosec G203 -- region content is produced by the escaping HTML renderer
	data.Results = template.HTML(content)
	data.Version = version

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "page", data); err != nil {
		s.logger.Error("template error", zap.Error(err))
	}
}

func strategyOptions(selected scoring.Strategy) []StrategyOption {
	known := scoring.KnownStrategies()
	options := make([]StrategyOption, 0, len(known)+1)
	found := false
	for _, st := range known {
		options = append(options, StrategyOption{
			Value:    string(st),
			Label:    st.Label(),
			Selected: st == selected,
		})
		found = found || st == selected
	}
	if !found && selected != "" {
		options = append(options, StrategyOption{Value: string(selected), Label: selected.Label(), Selected: true})
	}
	return options
}
