// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress provides the job-level log sink. Pipeline code writes
// plain text to it as an io.Writer; readers poll complete lines by cursor
// and wait on a change channel, so any number of streams can follow one
// job without back-pressure on the writer.
package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("progress: write to closed log")

// Log accumulates text and splits it into lines. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	text    strings.Builder
	partial []byte
	lines   []string
	closed  bool
	changed chan struct{}
}

// New returns an empty open Log.
func New() *Log {
	return &Log{changed: make(chan struct{})}
}

// Write appends p. Complete lines become visible to Lines immediately; a
// trailing partial line waits for its newline or for Close.
func (l *Log) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}
	l.text.Write(p)

	data := append(l.partial, p...)
	added := false
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		l.lines = append(l.lines, strings.TrimSuffix(string(data[:i]), "\r"))
		data = data[i+1:]
		added = true
	}
	l.partial = append([]byte(nil), data...)
	if added {
		l.notifyLocked()
	}
	return len(p), nil
}

// String returns everything written so far.
func (l *Log) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text.String()
}

// Lines returns the complete lines from index from onward, and whether the
// log is closed. Once closed, no further lines will appear.
func (l *Log) Lines(from int) ([]string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if from < 0 {
		from = 0
	}
	if from >= len(l.lines) {
		return nil, l.closed
	}
	out := make([]string, len(l.lines)-from)
	copy(out, l.lines[from:])
	return out, l.closed
}

// Changed returns a channel that is closed the next time lines are added
// or the log is closed. Call it again after each wake-up.
func (l *Log) Changed() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.changed
}

// Close flushes any partial line and marks the log finished. Close is
// idempotent.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	if len(l.partial) > 0 {
		l.lines = append(l.lines, string(l.partial))
		l.partial = nil
	}
	l.closed = true
	l.notifyLocked()
	return nil
}

// Closed reports whether Close has been called.
func (l *Log) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Log) notifyLocked() {
	close(l.changed)
	if !l.closed {
		l.changed = make(chan struct{})
	}
}
