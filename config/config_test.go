package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"URLSENTRY_RULES", "URLSENTRY_INTERVAL", "URLSENTRY_CLIPBOARD", "URLSENTRY_LOG_LEVEL", "URLSENTRY_LOG_FORMAT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interval != 500*time.Millisecond {
		t.Errorf("Interval = %v, want 500ms", cfg.Interval)
	}
	if cfg.Clipboard != "auto" || cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.RulesPath != "" {
		t.Errorf("RulesPath = %q, want empty", cfg.RulesPath)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("URLSENTRY_RULES", "/etc/urlsentry/rules.yaml")
	t.Setenv("URLSENTRY_INTERVAL", "2s")
	t.Setenv("URLSENTRY_CLIPBOARD", "wayland")
	t.Setenv("URLSENTRY_LOG_LEVEL", "debug")
	t.Setenv("URLSENTRY_LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RulesPath != "/etc/urlsentry/rules.yaml" || cfg.Interval != 2*time.Second ||
		cfg.Clipboard != "wayland" || cfg.Level() != slog.LevelDebug || cfg.LogFormat != "json" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	// WHAT: A .env in the working directory feeds unset variables.
	// WHY: Lets a user pin settings next to their rules file.
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("URLSENTRY_CLIPBOARD", "")
	os.Unsetenv("URLSENTRY_CLIPBOARD")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("URLSENTRY_CLIPBOARD=memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clipboard != "memory" {
		t.Errorf("Clipboard = %q, want memory", cfg.Clipboard)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		key, val string
	}{
		{"URLSENTRY_INTERVAL", "10ms"},
		{"URLSENTRY_INTERVAL", "soon"},
		{"URLSENTRY_CLIPBOARD", "carrier-pigeon"},
		{"URLSENTRY_LOG_LEVEL", "loud"},
		{"URLSENTRY_LOG_FORMAT", "xml"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.val, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestParse_DefersValidation(t *testing.T) {
	// WHAT: Parse accepts an out-of-range env value; Validate rejects it.
	// WHY: A command-line flag may still override the value.
	chdir(t, t.TempDir())
	t.Setenv("URLSENTRY_INTERVAL", "10ms")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	cfg.Interval = time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate after override: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestResolveRulesPath(t *testing.T) {
	cfg := &Config{RulesPath: "custom.yaml"}
	if got := cfg.ResolveRulesPath(); got != "custom.yaml" {
		t.Errorf("explicit path: got %q", got)
	}

	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)

	cfg = &Config{}
	if got := cfg.ResolveRulesPath(); got != DefaultRulesFile {
		t.Errorf("nothing on disk: got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, DefaultRulesFile), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := cfg.ResolveRulesPath(); got != DefaultRulesFile {
		t.Errorf("working directory: got %q", got)
	}
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(file, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, ok := firstExisting(filepath.Join(dir, "missing.json"), dir, file)
	if !ok || got != file {
		t.Fatalf("firstExisting = %q, %v, want %q", got, ok, file)
	}
	if _, ok := firstExisting(filepath.Join(dir, "missing.json")); ok {
		t.Fatal("expected no match")
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
