package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/triage/internal/infrastructure/config"
	"github.com/felixgeelhaar/triage/internal/infrastructure/logging"
	"github.com/felixgeelhaar/triage/internal/infrastructure/wiring"
)

const configHint = "Check .triage/config.yaml, .env and TRIAGE_* variables"

// loadConfig returns the project root and the effective configuration with
// command-line overrides applied. The logger is rebuilt at the configured level.
func loadConfig() (string, config.Config, error) {
	root, err := getProjectRoot()
	if err != nil {
		return "", config.Config{}, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return root, cfg, NewCLIError("failed to load configuration", configHint, err)
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	l, err := logging.New(cfg.LogLevel, verbose)
	if err != nil {
		return root, cfg, NewCLIError("invalid log_level", "Use debug, info, warn or error", err)
	}
	logger = l
	logger.Debug("config loaded", zap.String("root", root), zap.String("base_url", cfg.BaseURL))
	return root, cfg, nil
}

// loadServices builds the client stack for commands that talk to the service.
// Flags set on cmd override the configuration.
func loadServices(cmd *cobra.Command) (*wiring.AppServices, error) {
	root, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
		d, _ := cmd.Flags().GetDuration("timeout")
		cfg.Timeout = config.Duration(d)
	}
	if f := cmd.Flags().Lookup("retries"); f != nil && f.Changed {
		cfg.Retries, _ = cmd.Flags().GetInt("retries")
	}

	services, err := wiring.BuildAppServices(root, cfg, logger, Version)
	if err != nil {
		return nil, NewCLIError("invalid configuration", configHint, err)
	}
	return services, nil
}

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}
