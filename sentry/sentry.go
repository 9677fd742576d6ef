// CLAUDE:SUMMARY Clipboard watcher: polls the clipboard change counter, cleans http(s) URLs, writes them back.
// CLAUDE:EXPORTS Watcher, New, Options, Sanitizer
// Package sentry watches the clipboard and rewrites copied URLs without
// their tracking parameters.
//
// Each tick reads the clipboard change counter. A new counter leads to one
// read of the text; http(s) URLs are sanitized and, when something was
// stripped, the cleaned URL is written back. That write bumps the counter
// again, and the next tick finds an already clean URL and does nothing.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/urlsentry/clipboard"
	"github.com/hazyhaar/urlsentry/sanitize"
	"github.com/hazyhaar/urlsentry/watch"
)

// Sanitizer cleans one URL. *sanitize.Sanitizer implements it.
type Sanitizer interface {
	Sanitize(raw string) sanitize.Result
}

// Options configures a Watcher.
type Options struct {
	// Interval between clipboard checks. Default: watch.DefaultInterval.
	Interval time.Duration
	// Logger for structured logs. Default: slog.Default().
	Logger *slog.Logger
	// Console receives one "Cleaned URL: ..." line per rewrite.
	// Default: os.Stdout.
	Console io.Writer
}

// Watcher owns the last observed clipboard counter. Poll and Run must be
// driven from a single goroutine.
type Watcher struct {
	cb      clipboard.Clipboard
	san     Sanitizer
	w       *watch.Watcher
	logger  *slog.Logger
	console io.Writer
}

// New creates a Watcher reading and writing cb.
func New(cb clipboard.Clipboard, san Sanitizer, opts Options) *Watcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	return &Watcher{
		cb:      cb,
		san:     san,
		logger:  opts.Logger,
		console: opts.Console,
		w: watch.New(watch.Options{
			Interval: opts.Interval,
			Detector: cb.ChangeCount,
			Logger:   opts.Logger,
		}),
	}
}

// Poll runs one tick. It does nothing when the change counter is the one
// seen last; otherwise the counter is recorded before anything else, so
// content that fails is not looked at again.
func (s *Watcher) Poll(ctx context.Context) {
	s.w.Poll(ctx, s.handle)
}

// Run leaves the current clipboard content alone, then polls until ctx is
// cancelled.
func (s *Watcher) Run(ctx context.Context) {
	s.w.Run(ctx, s.handle)
}

// Stats exposes the polling counters.
func (s *Watcher) Stats() watch.Stats { return s.w.Stats() }

// handle processes the clipboard content behind a new change counter.
// Errors returned here are clipboard access failures; the tick is skipped.
func (s *Watcher) handle(ctx context.Context) error {
	text, err := s.cb.ReadText(ctx)
	if err != nil {
		if errors.Is(err, clipboard.ErrEmpty) {
			return nil
		}
		return fmt.Errorf("read clipboard: %w", err)
	}

	if !isHTTPURL(text) {
		return nil
	}

	res := s.san.Sanitize(text)
	if !res.Changed() {
		return nil
	}

	if err := s.cb.WriteText(ctx, res.URL()); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}

	s.logger.Info("sentry: url cleaned", "url", res.URL(), "removed", strings.Join(res.Removed(), ","))
	fmt.Fprintf(s.console, "Cleaned URL: %s\n", res.URL())
	return nil
}

// isHTTPURL reports whether text parses as a URL whose scheme starts with
// "http". Anything else is not ours to touch.
func isHTTPURL(text string) bool {
	u, err := url.Parse(text)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Scheme, "http")
}
