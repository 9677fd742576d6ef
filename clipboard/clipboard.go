// CLAUDE:SUMMARY Clipboard collaborator contract (change counter, read, write) and an in-memory implementation.
// CLAUDE:EXPORTS Clipboard, Memory, NewMemory, New
// Package clipboard gives urlsentry access to the system clipboard.
//
// The contract mirrors a pasteboard: a change counter that increases on
// every content change from any source, plus text read and write. Callers
// detect new content by comparing counters, never by comparing text.
package clipboard

import (
	"context"
	"sync"
)

// Clipboard is the system clipboard as seen by the watcher.
type Clipboard interface {
	// ChangeCount returns a counter that changes whenever the content does.
	ChangeCount(ctx context.Context) (int64, error)
	// ReadText returns the current text, or ErrEmpty.
	ReadText(ctx context.Context) (string, error)
	// WriteText replaces the clipboard content with text.
	WriteText(ctx context.Context, text string) error
}

// Memory is an in-process Clipboard. Every write bumps the counter, even
// when the text is identical. It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	text  string
	set   bool
	count int64

	reads  int64
	writes int64
}

// NewMemory returns an empty in-memory clipboard.
func NewMemory() *Memory { return &Memory{} }

// ChangeCount implements Clipboard.
func (m *Memory) ChangeCount(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, nil
}

// ReadText implements Clipboard.
func (m *Memory) ReadText(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if !m.set {
		return "", ErrEmpty
	}
	return m.text, nil
}

// WriteText implements Clipboard.
func (m *Memory) WriteText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.text, m.set = text, true
	m.count++
	return nil
}

// Text returns the current content without counting a read.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Reads returns how many times ReadText was called.
func (m *Memory) Reads() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns how many times WriteText was called.
func (m *Memory) Writes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
