// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nv12

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for nv12 and the graphics contexts in
// use by live compositors. By default nv12 produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore silence.
//
// Log levels used by nv12:
//   - [slog.LevelDebug]: texture reallocation, frame geometry
//   - [slog.LevelInfo]: compositor created and closed
//   - [slog.LevelWarn]: tolerated faults (destroyed texture not rebound,
//     frame size differing from the output target)
//
// Example:
//
//	nv12.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	backendsMu.Lock()
	defer backendsMu.Unlock()
	for b := range backends {
		b.SetLogger(l)
	}
}

// Logger returns the current logger used by nv12.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by graphics contexts that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// backends counts live compositors per logging-capable context.
var (
	backendsMu sync.Mutex
	backends   = map[loggerSetter]int{}
)

// registerBackend hands the current logger to ctx if it accepts one and
// keeps it updated until unregisterBackend.
func registerBackend(ctx any) {
	ls, ok := ctx.(loggerSetter)
	if !ok {
		return
	}
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[ls]++
	ls.SetLogger(Logger())
}

func unregisterBackend(ctx any) {
	ls, ok := ctx.(loggerSetter)
	if !ok {
		return
	}
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if backends[ls]--; backends[ls] <= 0 {
		delete(backends, ls)
	}
}
