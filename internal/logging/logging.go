// Package logging configures log/slog for the dw binaries. Loggers handed
// out by L before Init is called follow whatever Init installs later, so
// packages can keep a package-level logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Structured log field names shared across packages.
const (
	KeyComponent  = "component"
	KeyPath       = "path"
	KeyBackend    = "backend"
	KeySource     = "source"
	KeyDurationMs = "durationMs"
	KeyError      = "error"
)

var (
	// level is shared by every handler Init installs, so SetLevel takes
	// effect without rebuilding them.
	level slog.LevelVar

	current atomic.Pointer[slog.Handler]

	root = slog.New(deferred{})
)

func init() {
	install(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(root)
}

func install(h slog.Handler) {
	current.Store(&h)
}

// deferred resolves the installed handler on every call and replays the
// attrs and groups added through With/WithGroup on top of it.
type deferred struct {
	derive []func(slog.Handler) slog.Handler
}

func (d deferred) resolve() slog.Handler {
	h := *current.Load()
	for _, fn := range d.derive {
		h = fn(h)
	}
	return h
}

func (d deferred) extend(fn func(slog.Handler) slog.Handler) deferred {
	derive := make([]func(slog.Handler) slog.Handler, len(d.derive), len(d.derive)+1)
	copy(derive, d.derive)
	return deferred{derive: append(derive, fn)}
}

func (d deferred) Enabled(ctx context.Context, l slog.Level) bool {
	return d.resolve().Enabled(ctx, l)
}

func (d deferred) Handle(ctx context.Context, r slog.Record) error {
	return d.resolve().Handle(ctx, r)
}

func (d deferred) WithAttrs(attrs []slog.Attr) slog.Handler {
	return d.extend(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (d deferred) WithGroup(name string) slog.Handler {
	return d.extend(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

// Init sends logs to w (stderr when nil) in "text" or "json" format at the
// given level. Stdout is left alone: it carries command output.
func Init(format, lvl string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	level.Set(parseLevel(lvl))

	opts := &slog.HandlerOptions{Level: &level}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		install(slog.NewJSONHandler(w, opts))
	} else {
		install(slog.NewTextHandler(w, opts))
	}
}

// SetLevel changes the minimum level without touching the output.
func SetLevel(lvl string) {
	level.Set(parseLevel(lvl))
}

// L returns a logger tagged with the given component name.
func L(component string) *slog.Logger {
	return root.With(slog.String(KeyComponent, component))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
