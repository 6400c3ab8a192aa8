// Package mcp exposes task analysis to MCP clients.
package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/triage/internal/infrastructure/dispatch"
	"github.com/felixgeelhaar/triage/internal/infrastructure/render"
	"github.com/felixgeelhaar/triage/pkg/client"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// Server serves the triage tools over MCP. Each tool call owns its output,
// so calls do not share a region and never supersede one another.
type Server struct {
	mcpServer *mcp.Server
	scorer    dispatch.Scorer
	strategy  scoring.Strategy
	logger    *zap.Logger
}

// mcpErr returns a user-friendly error for MCP clients.
func mcpErr(friendly string, err error) error {
	if err == nil {
		return errors.New(friendly)
	}
	return fmt.Errorf("%s: %v", friendly, err)
}

func NewServer(scorer dispatch.Scorer, strategy scoring.Strategy, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strategy == "" {
		strategy = scoring.DefaultStrategy
	}

	info := mcp.ServerInfo{
		Name:    "triage",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Triage MCP Server"),
			mcp.WithDescription("Triage scores task lists with a remote prioritization service and renders the ranked result."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Pass a JSON list of tasks (title, due_date, estimated_hours, importance) to triage_analyze for a ranked list, or to triage_suggest for today's picks."),
		),
		scorer:   scorer,
		strategy: strategy,
		logger:   logger,
	}

	s.registerTools()
	s.registerStrategiesResource()
	return s
}

type AnalyzeArgs struct {
	Tasks    string `json:"tasks" jsonschema:"description=JSON list of tasks to score"`
	Strategy string `json:"strategy,omitempty" jsonschema:"description=Ranking strategy: smart, fastest, impact or deadline"`
	Format   string `json:"format,omitempty" jsonschema:"description=Output format: markdown (default) or json"`
}

type SuggestArgs struct {
	Tasks  string `json:"tasks" jsonschema:"description=JSON list of tasks to pick from"`
	Format string `json:"format,omitempty" jsonschema:"description=Output format: markdown (default) or json"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("triage_analyze").
		Description("Score and rank a list of tasks. Each task is tagged HIGH (score 80+), MEDIUM (50+) or LOW.").
		Handler(s.handleAnalyze)

	s.mcpServer.Tool("triage_suggest").
		Description("Suggest which tasks to work on today, with the service's explanation.").
		Handler(s.handleSuggest)
}

func (s *Server) handleAnalyze(ctx context.Context, args AnalyzeArgs) (string, error) {
	strategy := args.Strategy
	if strategy == "" {
		strategy = string(s.strategy)
	}
	return s.run(ctx, dispatch.TriggerAnalyze, args.Tasks, strategy, args.Format)
}

func (s *Server) handleSuggest(ctx context.Context, args SuggestArgs) (string, error) {
	return s.run(ctx, dispatch.TriggerSuggest, args.Tasks, "", args.Format)
}

func (s *Server) run(ctx context.Context, trigger dispatch.Trigger, tasks, strategy, format string) (string, error) {
	renderer, err := toolRenderer(format)
	if err != nil {
		return "", mcpErr("Unsupported format. Use markdown or json.", nil)
	}

	resp, err := dispatch.Fetch(ctx, s.scorer, trigger, tasks, strategy)
	if err != nil {
		s.logger.Warn("mcp tool failed", zap.String("trigger", string(trigger)), zap.Error(err))
		var transport *client.TransportError
		switch {
		case errors.Is(err, dispatch.ErrInvalidJSON):
			return "", mcpErr("Invalid JSON input", err)
		case errors.As(err, &transport):
			return "", mcpErr("The scoring service could not be reached or returned a non-JSON reply", err)
		default:
			return "", mcpErr("Request failed", err)
		}
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, resp); err != nil {
		return "", mcpErr("Failed to render result", err)
	}
	return buf.String(), nil
}

func toolRenderer(format string) (render.Renderer, error) {
	switch render.Format(format) {
	case "", render.FormatMarkdown:
		return render.NewMarkdownRenderer(), nil
	case render.FormatJSON:
		return render.NewJSONRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}
