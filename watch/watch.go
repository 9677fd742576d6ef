// Package watch provides a generic "poll a version token, act on change"
// loop. The token comes from a Detector; whenever it differs from the last
// observed value the action runs once.
//
// Typical usage:
//
//	w := watch.New(watch.Options{Interval: 500*time.Millisecond, Detector: cb.ChangeCount})
//	w.Run(ctx, func(ctx context.Context) error { return handle(ctx) })
//
// Ticks are serialized: Run polls from a single goroutine and a tick that
// arrives while the action is still running is dropped, never queued.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultInterval is the polling frequency when Options.Interval is unset.
const DefaultInterval = 500 * time.Millisecond

// unseen is the version before anything was observed.
const unseen = -1

// ErrNoDetector is returned by Seed when Options.Detector is nil.
var ErrNoDetector = errors.New("watch: no detector configured")

// Detector reads a version token. Two calls that return different values
// mean "something changed".
type Detector func(ctx context.Context) (int64, error)

// Action handles one detected change.
type Action func(ctx context.Context) error

// Options tunes the watcher behaviour.
type Options struct {
	// Interval is the polling frequency. Default: DefaultInterval.
	Interval time.Duration
	// Detector supplies the version token.
	Detector Detector
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher polls a Detector and runs an action on each new version.
type Watcher struct {
	opts Options

	// version is the last observed token. Only the polling goroutine
	// writes it.
	version atomic.Int64

	checks   atomic.Int64
	changes  atomic.Int64
	errors   atomic.Int64
	actions  atomic.Int64
	actionNs atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Checks          int64         `json:"checks"`
	ChangesDetected int64         `json:"changes_detected"`
	Errors          int64         `json:"errors"`
	Actions         int64         `json:"actions"`
	AvgActionTime   time.Duration `json:"avg_action_time"`
}

// New creates a Watcher. Call Run, or Poll on your own schedule.
func New(opts Options) *Watcher {
	opts.defaults()
	w := &Watcher{opts: opts}
	w.version.Store(unseen)
	return w
}

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	s := Stats{
		Checks:          w.checks.Load(),
		ChangesDetected: w.changes.Load(),
		Errors:          w.errors.Load(),
		Actions:         w.actions.Load(),
	}
	if s.Actions > 0 {
		s.AvgActionTime = time.Duration(w.actionNs.Load() / s.Actions)
	}
	return s
}

// Version returns the last observed version token, or -1 before the first.
func (w *Watcher) Version() int64 { return w.version.Load() }

// Seed records the current version without running any action, so content
// present before the watcher started is left alone.
func (w *Watcher) Seed(ctx context.Context) error {
	if w.opts.Detector == nil {
		return ErrNoDetector
	}
	v, err := w.opts.Detector(ctx)
	if err != nil {
		return err
	}
	w.version.Store(v)
	return nil
}

// Poll runs one check. When the version differs from the last observed one
// it is recorded first, then action runs. The version is never rolled back:
// a failing action is logged and the same version is not retried.
// Poll reports whether action ran.
func (w *Watcher) Poll(ctx context.Context, action Action) bool {
	log := w.opts.Logger
	if w.opts.Detector == nil {
		w.errors.Add(1)
		log.Warn("watch: version check failed", "error", ErrNoDetector)
		return false
	}

	w.checks.Add(1)
	cur, err := w.opts.Detector(ctx)
	if err != nil {
		w.errors.Add(1)
		log.Warn("watch: version check failed", "error", err)
		return false
	}
	if cur == w.version.Load() {
		return false
	}

	w.changes.Add(1)
	prev := w.version.Load()
	w.version.Store(cur)
	log.Debug("watch: change detected", "old_version", prev, "new_version", cur)

	start := time.Now()
	if err := action(ctx); err != nil {
		w.errors.Add(1)
		log.Warn("watch: action failed", "error", err, "version", cur)
		return true
	}
	w.actions.Add(1)
	w.actionNs.Add(int64(time.Since(start)))
	return true
}

// Run seeds the version, then polls at opts.Interval until ctx is
// cancelled. A failed seed is logged; the first successful poll then acts
// on whatever is current.
func (w *Watcher) Run(ctx context.Context, action Action) {
	log := w.opts.Logger

	if err := w.Seed(ctx); err != nil {
		w.errors.Add(1)
		log.Warn("watch: initial version check failed", "error", err)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	log.Info("watch: started", "interval", w.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("watch: stopped")
			return
		case <-ticker.C:
			w.Poll(ctx, action)
		}
	}
}
