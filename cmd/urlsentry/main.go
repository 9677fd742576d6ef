// CLAUDE:SUMMARY CLI entry point for urlsentry — clipboard URL cleaner with a one-shot -clean mode.
// Command urlsentry watches the clipboard and strips tracking parameters
// from copied URLs.
//
// Usage:
//
//	urlsentry                                  # watch the clipboard until Ctrl+C
//	urlsentry -rules ~/trackingParams.json     # explicit rules file
//	urlsentry -clean 'https://x.com/?utm_source=a'   # clean one URL and exit
//
// Every flag has a URLSENTRY_* environment equivalent; see package config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/urlsentry/clipboard"
	"github.com/hazyhaar/urlsentry/config"
	"github.com/hazyhaar/urlsentry/rules"
	"github.com/hazyhaar/urlsentry/sanitize"
	"github.com/hazyhaar/urlsentry/sentry"
)

const banner = "Starting clipboard monitor... (Control + C to quit)"

func main() {
	fs := flag.NewFlagSet("urlsentry", flag.ExitOnError)
	cfg, cleanURL, err := loadConfig(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "urlsentry:", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, cleanURL, os.Stdout); err != nil {
		logger.Error("urlsentry: fatal", "error", err)
		os.Exit(1)
	}
}

// loadConfig layers flags over the environment and validates the result
// once. It returns the -clean value.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, string, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, "", err
	}
	cleanURL := bindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, *cleanURL, nil
}

// bindFlags registers flags whose defaults are the env-loaded values, so a
// flag only overrides what it is given. It returns the -clean value.
func bindFlags(fs *flag.FlagSet, cfg *config.Config) *string {
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "path to the rules document (JSON or YAML)")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "clipboard polling interval")
	fs.StringVar(&cfg.Clipboard, "clipboard", cfg.Clipboard, "clipboard backend: auto, darwin, x11, wayland, windows, memory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text, json")
	return fs.String("clean", "", "sanitize one URL, print the result and exit")
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, cleanURL string, stdout io.Writer) error {
	tr := rules.LoadOrEmpty(cfg.ResolveRulesPath(), logger)
	san := sanitize.New(tr)

	if cleanURL != "" {
		out := cleanURL
		if res := san.Sanitize(cleanURL); res.Changed() {
			out = res.URL()
		}
		fmt.Fprintln(stdout, out)
		return nil
	}

	cb, err := clipboard.New(cfg.Clipboard)
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}

	fmt.Fprintln(stdout, banner)

	w := sentry.New(cb, san, sentry.Options{
		Interval: cfg.Interval,
		Logger:   logger,
		Console:  stdout,
	})
	w.Run(ctx)

	s := w.Stats()
	logger.Info("urlsentry: stopped", "checks", s.Checks, "changes", s.ChangesDetected, "errors", s.Errors)
	return nil
}
