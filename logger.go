package f3d

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/f3d/backend/native"
	"github.com/gogpu/f3d/batch"
	"github.com/gogpu/f3d/shader"
	"github.com/gogpu/f3d/texture"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for f3d and all its sub-packages.
// By default, f3d produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default.
//
// Log levels used by f3d:
//   - [slog.LevelDebug]: batch flushes, cache misses, pipeline creation
//   - [slog.LevelInfo]: GPU adapter selection
//   - [slog.LevelWarn]: recoverable diagnostics (unknown opcodes, dropped
//     triangles, placeholder textures, shader fallbacks)
//   - [slog.LevelError]: fatal stream errors
//
// Example:
//
//	f3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	texture.SetLogger(l)
	batch.SetLogger(l)
	shader.SetLogger(l)
	native.SetLogger(l)
}

// Logger returns the current logger used by f3d.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
