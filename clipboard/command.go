// CLAUDE:SUMMARY Clipboard backed by platform tools (pbpaste/pbcopy, xclip, wl-clipboard, PowerShell) with an optional native change counter.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// waitDelay bounds how long a tool's pipes are waited on once it has exited
// or its context is done.
const waitDelay = 500 * time.Millisecond

// Runner executes argv with stdin (may be nil) and returns its stdout.
type Runner func(ctx context.Context, stdin io.Reader, argv []string) ([]byte, error)

// Command is a Clipboard that shells out to platform tools.
//
// When Count is empty there is no native change counter; ChangeCount then
// reads the clipboard and advances a local counter whenever the text
// differs from the previous read.
type Command struct {
	Paste []string
	Copy  []string
	Count []string
	// TrimNewline drops one trailing line break the paste tool appends.
	TrimNewline bool
	// Run defaults to executing the tools with os/exec.
	Run Runner

	mu      sync.Mutex
	counter int64
	last    string
	seen    bool
}

// Backend names accepted by New.
const (
	BackendAuto    = "auto"
	BackendDarwin  = "darwin"
	BackendX11     = "x11"
	BackendWayland = "wayland"
	BackendWindows = "windows"
	BackendMemory  = "memory"
)

// darwinChangeCount asks NSPasteboard for its changeCount through JXA.
const darwinChangeCount = "ObjC.import('AppKit'); $.NSPasteboard.generalPasteboard.changeCount"

// New returns the clipboard for backend. "auto" picks one from the OS and,
// on Linux, from WAYLAND_DISPLAY. The backend's tools must be on PATH.
func New(backend string) (Clipboard, error) {
	if backend == BackendAuto || backend == "" {
		backend = detect()
	}

	var c *Command
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendDarwin:
		c = &Command{
			Paste: []string{"pbpaste"},
			Copy:  []string{"pbcopy"},
			Count: []string{"osascript", "-l", "JavaScript", "-e", darwinChangeCount},
		}
	case BackendX11:
		c = &Command{
			Paste: []string{"xclip", "-selection", "clipboard", "-o"},
			Copy:  []string{"xclip", "-selection", "clipboard"},
		}
	case BackendWayland:
		c = &Command{
			Paste: []string{"wl-paste", "--no-newline"},
			Copy:  []string{"wl-copy"},
		}
	case BackendWindows:
		c = &Command{
			Paste:       []string{"powershell", "-NoProfile", "-Command", "Get-Clipboard -Raw"},
			Copy:        []string{"powershell", "-NoProfile", "-Command", "$input | Set-Clipboard"},
			TrimNewline: true,
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, backend)
	}

	for _, argv := range [][]string{c.Paste, c.Copy, c.Count} {
		if len(argv) == 0 {
			continue
		}
		if _, err := exec.LookPath(argv[0]); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupported, backend, err)
		}
	}
	return c, nil
}

func detect() string {
	switch runtime.GOOS {
	case "darwin":
		return BackendDarwin
	case "windows":
		return BackendWindows
	}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return BackendWayland
	}
	return BackendX11
}

// ChangeCount implements Clipboard.
func (c *Command) ChangeCount(ctx context.Context) (int64, error) {
	if len(c.Count) > 0 {
		out, err := c.run(ctx, nil, c.Count, true)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: change count %q: %v", ErrCommand, out, err)
		}
		return n, nil
	}

	text, err := c.ReadText(ctx)
	if err != nil && !errors.Is(err, ErrEmpty) {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seen || text != c.last {
		c.counter++
		c.last, c.seen = text, true
	}
	return c.counter, nil
}

// ReadText implements Clipboard.
func (c *Command) ReadText(ctx context.Context) (string, error) {
	out, err := c.run(ctx, nil, c.Paste, true)
	if err != nil {
		return "", err
	}
	if c.TrimNewline {
		out = bytes.TrimSuffix(out, []byte("\n"))
		out = bytes.TrimSuffix(out, []byte("\r"))
	}
	if len(out) == 0 {
		return "", ErrEmpty
	}
	return string(out), nil
}

// WriteText implements Clipboard.
func (c *Command) WriteText(ctx context.Context, text string) error {
	_, err := c.run(ctx, strings.NewReader(text), c.Copy, false)
	return err
}

func (c *Command) run(ctx context.Context, stdin io.Reader, argv []string, capture bool) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: no command configured", ErrCommand)
	}
	if c.Run != nil {
		return c.Run(ctx, stdin, argv)
	}
	if !capture {
		return nil, execWrite(ctx, stdin, argv)
	}
	return execRun(ctx, stdin, argv)
}

func execRun(ctx context.Context, stdin io.Reader, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrCommand, argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// execWrite runs a copy tool with stdout and stderr on the null device.
// xclip and wl-copy fork a child that keeps serving the selection; a pipe
// inherited by that child would hold Wait until another app takes over.
func execWrite(ctx context.Context, stdin io.Reader, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.WaitDelay = waitDelay
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCommand, argv[0], err)
	}
	return nil
}
