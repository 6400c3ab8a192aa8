// Package wiring assembles the configured client, renderers and dispatchers
// shared by every triage surface.
package wiring

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/felixgeelhaar/triage/internal/infrastructure/config"
	"github.com/felixgeelhaar/triage/internal/infrastructure/dispatch"
	"github.com/felixgeelhaar/triage/internal/infrastructure/render"
	"github.com/felixgeelhaar/triage/pkg/client"
)

// RetryDelay is the first backoff delay when retries are configured.
const RetryDelay = 500 * time.Millisecond

// AppServices bundles the components built from one configuration.
type AppServices struct {
	Root   string
	Config config.Config
	Logger *zap.Logger
	Client *client.Client
}

// BuildAppServices validates cfg and builds the scoring client for root.
func BuildAppServices(root string, cfg config.Config, logger *zap.Logger, version string) (*AppServices, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if version == "" {
		version = "dev"
	}

	c := client.New(
		client.WithBaseURL(cfg.BaseURL),
		client.WithTimeout(cfg.Timeout.Std()),
		client.WithRetry(cfg.Retries, RetryDelay),
		client.WithLogger(logger.Named("client")),
		client.WithUserAgent("triage/"+version),
	)

	return &AppServices{
		Root:   root,
		Config: cfg,
		Logger: logger,
		Client: c,
	}, nil
}

// NewDispatcher returns a dispatcher that renders in format into a fresh
// region. An empty format uses the configured one.
func (s *AppServices) NewDispatcher(format string) (*dispatch.Dispatcher, error) {
	if format == "" {
		format = s.Config.Format
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	r, err := render.New(f)
	if err != nil {
		return nil, err
	}
	return dispatch.NewDispatcher(s.Client, r, render.NewRegion(), s.Logger.Named("dispatch")), nil
}
