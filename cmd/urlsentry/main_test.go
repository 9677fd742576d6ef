package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/urlsentry/config"
)

const testRules = `{
	"genericParams": ["utm_source", "utm_medium"],
	"domainRules": {
		"amazon.": {"trackingParams": ["tag", "ref", "pf_rd_p"], "preserveParams": []}
	}
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trackingParams.json")
	if err := os.WriteFile(path, []byte(testRules), 0o600); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		RulesPath: path,
		Interval:  50 * time.Millisecond,
		Clipboard: "memory",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRun_CleanOnce(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://www.amazon.com/dp/B000?tag=aff-20&qid=123", "https://www.amazon.com/dp/B000?qid=123"},
		{"https://x.com/?utm_source=a&utm_medium=b", "https://x.com/"},
		{"https://example.com/path", "https://example.com/path"},
	}
	cfg := testConfig(t)
	for _, tc := range cases {
		var out bytes.Buffer
		if err := run(context.Background(), discard(), cfg, tc.in, &out); err != nil {
			t.Fatalf("run: %v", err)
		}
		if got := strings.TrimSpace(out.String()); got != tc.want {
			t.Errorf("-clean %q = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRun_MissingRulesPassesThrough(t *testing.T) {
	// WHAT: Without a rules file the URL comes back untouched.
	// WHY: Missing rules disable cleaning, they do not fail the run.
	cfg := testConfig(t)
	cfg.RulesPath = filepath.Join(t.TempDir(), "absent.json")
	var out bytes.Buffer
	if err := run(context.Background(), discard(), cfg, "https://x.com/?utm_source=a", &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "https://x.com/?utm_source=a" {
		t.Errorf("got %q", got)
	}
}

func TestRun_WatchUntilCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	if err := run(ctx, discard(), cfg, "", &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out.String(), banner) {
		t.Errorf("expected banner, got %q", out.String())
	}
}

func TestRun_UnsupportedClipboard(t *testing.T) {
	cfg := testConfig(t)
	cfg.Clipboard = "teletype"
	if err := run(context.Background(), discard(), cfg, "", io.Discard); err == nil {
		t.Fatal("expected an error for an unsupported backend")
	}
}

func TestBindFlags_OverrideEnv(t *testing.T) {
	cfg := &config.Config{Interval: 500 * time.Millisecond, Clipboard: "auto", LogLevel: "info", LogFormat: "text"}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	clean := bindFlags(fs, cfg)

	err := fs.Parse([]string{"-interval", "2s", "-rules", "r.yaml", "-clean", "https://x.com/"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Interval != 2*time.Second || cfg.RulesPath != "r.yaml" || *clean != "https://x.com/" {
		t.Errorf("flags not applied: %+v clean=%q", cfg, *clean)
	}
	if cfg.Clipboard != "auto" || cfg.LogLevel != "info" {
		t.Errorf("unset flags must keep env values: %+v", cfg)
	}
}

func TestLoadConfig_FlagOverridesInvalidEnv(t *testing.T) {
	// WHAT: A valid flag rescues an out-of-range env value.
	// WHY: Validation runs once, after flags are applied.
	chdir(t, t.TempDir())
	t.Setenv("URLSENTRY_INTERVAL", "10ms")

	cfg, _, err := loadConfig(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-interval", "1s"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Interval != time.Second {
		t.Errorf("Interval = %v, want 1s", cfg.Interval)
	}

	_, _, err = loadConfig(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig without the flag, got %v", err)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
