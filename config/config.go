// CLAUDE:SUMMARY Process configuration from environment and optional .env, validated; logger construction; rules file discovery.
// Package config loads urlsentry's process settings.
//
// Values come from URLSENTRY_* environment variables, optionally seeded
// from a .env file in the working directory. Command-line flags in
// cmd/urlsentry override them before Validate is called.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultRulesFile is the rules document name looked up when no path is set.
const DefaultRulesFile = "trackingParams.json"

// ErrInvalidConfig is returned when a setting is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds every runtime setting.
type Config struct {
	// RulesPath is the rules document. Empty means ResolveRulesPath searches.
	RulesPath string `env:"URLSENTRY_RULES"`
	// Interval between clipboard checks.
	Interval time.Duration `env:"URLSENTRY_INTERVAL" envDefault:"500ms" validate:"min=50ms"`
	// Clipboard selects the clipboard backend.
	Clipboard string `env:"URLSENTRY_CLIPBOARD" envDefault:"auto" validate:"oneof=auto darwin x11 wayland windows memory"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"URLSENTRY_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	// LogFormat is text or json.
	LogFormat string `env:"URLSENTRY_LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads .env (if present) and the environment without validating, so
// callers can apply overrides before calling Validate.
func Parse() (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Level maps LogLevel to a slog level. Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ResolveRulesPath returns RulesPath when set. Otherwise it returns the
// first existing DefaultRulesFile in the working directory, the user config
// directory (urlsentry/), or next to the executable. When none exists the
// bare DefaultRulesFile is returned and loading will report it missing.
func (c *Config) ResolveRulesPath() string {
	if c.RulesPath != "" {
		return c.RulesPath
	}

	candidates := []string{DefaultRulesFile}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "urlsentry", DefaultRulesFile))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), DefaultRulesFile))
	}

	if p, ok := firstExisting(candidates...); ok {
		return p
	}
	return DefaultRulesFile
}

func firstExisting(paths ...string) (string, bool) {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
