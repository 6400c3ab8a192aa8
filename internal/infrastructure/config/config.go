// Package config loads triage settings from defaults, the project config
// file, a .env file and TRIAGE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/triage/internal/infrastructure/render"
	"github.com/felixgeelhaar/triage/pkg/client"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

const (
	Dir        = ".triage"
	File       = "config.yaml"
	DotEnvFile = ".env"
	EnvPrefix  = "TRIAGE_"

	DefaultAddr     = "127.0.0.1:8080"
	DefaultLogLevel = "warn"
	DefaultTimeout  = 30 * time.Second
)

// ErrConfigExists is returned by Init when a config file is already present.
var ErrConfigExists = errors.New("config file already exists")

// Duration is a time.Duration stored as a Go duration string.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the effective triage configuration.
type Config struct {
	BaseURL  string   `yaml:"base_url"`
	Strategy string   `yaml:"strategy"`
	Format   string   `yaml:"format"`
	Timeout  Duration `yaml:"timeout"`
	Retries  int      `yaml:"retries"`
	Addr     string   `yaml:"addr"`
	LogLevel string   `yaml:"log_level"`
}

func Default() Config {
	return Config{
		BaseURL:  client.DefaultBaseURL,
		Strategy: string(scoring.DefaultStrategy),
		Format:   string(render.FormatText),
		Timeout:  Duration(DefaultTimeout),
		Retries:  1,
		Addr:     DefaultAddr,
		LogLevel: DefaultLogLevel,
	}
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	if strings.TrimSpace(c.Strategy) == "" {
		return fmt.Errorf("strategy cannot be empty")
	}
	if _, err := render.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	return nil
}

// ResolvePath ensures the path is within the .triage directory and prevents traversal.
func ResolvePath(root, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(root, Dir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}
	return cleanPath, nil
}

// Load builds the effective configuration for the project at root. A
// missing config file or .env file is not an error.
func Load(root string) (Config, error) {
	cfg := Default()

	path, err := ResolvePath(root, File)
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is confined to the .triage directory
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dotenv, err := readDotEnv(filepath.Join(root, DotEnvFile))
	if err != nil {
		return cfg, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// readDotEnv parses a .env file without touching the process environment.
func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", DotEnvFile, err)
	}
	return values, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("BASE_URL", &cfg.BaseURL)
	str("STRATEGY", &cfg.Strategy)
	str("FORMAT", &cfg.Format)
	str("ADDR", &cfg.Addr)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Timeout = Duration(d)
	}
	if v, ok := lookup(EnvPrefix + "RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRETRIES: %w", EnvPrefix, err)
		}
		cfg.Retries = n
	}
	return nil
}

// Save writes cfg to the project config file, creating .triage if needed.
func Save(root string, cfg Config) error {
	path, err := ResolvePath(root, File)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", Dir, err)
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Init writes the default configuration and returns the file path. An
// existing file is only replaced when force is set.
func Init(root string, force bool) (string, error) {
	path, err := ResolvePath(root, File)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return path, ErrConfigExists
	}
	return path, Save(root, Default())
}

func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
