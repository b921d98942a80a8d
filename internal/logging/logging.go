// Package logging configures the process-wide slog logger. Package-level
// loggers obtained from L before Setup runs follow the configured handler.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Key constants for structured log fields.
const (
	KeyComponent  = "component"
	KeyPackageID  = "packageId"
	KeyAdapter    = "adapter"
	KeyRunID      = "runId"
	KeyDurationMs = "durationMs"
	KeyError      = "error"
)

// deferredHandler forwards to whatever handler was installed last, replaying
// the attrs and groups collected by With/WithGroup on each call.
type deferredHandler struct {
	target *atomic.Pointer[slog.Handler]
	attrs  []slog.Attr
	groups []string
}

func (h *deferredHandler) resolve() slog.Handler {
	handler := *h.target.Load()
	for _, g := range h.groups {
		handler = handler.WithGroup(g)
	}
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	return handler
}

func (h *deferredHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.resolve().Enabled(ctx, level)
}

func (h *deferredHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *deferredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &deferredHandler{
		target: h.target,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *deferredHandler) WithGroup(name string) slog.Handler {
	return &deferredHandler{
		target: h.target,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append(append([]string(nil), h.groups...), name),
	}
}

var (
	current atomic.Pointer[slog.Handler]
	root    = slog.New(&deferredHandler{target: &current})
)

func init() {
	// stdout belongs to command output; logs default to stderr at warn.
	install(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(root)
}

func install(h slog.Handler) {
	current.Store(&h)
}

// Init installs a text or JSON handler writing to output (stderr when nil).
func Init(format, level string, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		install(slog.NewJSONHandler(output, opts))
		return
	}
	install(slog.NewTextHandler(output, opts))
}

// Options describe the CLI's logging setup.
type Options struct {
	Format string
	Level  string
	// File, when set, receives a copy of every record through a RotatingWriter.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Setup calls Init with stderr, teed to a rotating file when opts.File is
// set. The returned closer is nil without a file. A file that cannot be
// opened is reported but logging to stderr still works.
func Setup(opts Options) (io.Closer, error) {
	if opts.File == "" {
		Init(opts.Format, opts.Level, os.Stderr)
		return nil, nil
	}
	rw, err := NewRotatingWriter(opts.File, opts.MaxSizeMB, opts.MaxBackups)
	if err != nil {
		Init(opts.Format, opts.Level, os.Stderr)
		return nil, fmt.Errorf("log file %s: %w", opts.File, err)
	}
	Init(opts.Format, opts.Level, io.MultiWriter(os.Stderr, rw))
	return rw, nil
}

// L returns a logger tagged with the given component name.
func L(component string) *slog.Logger {
	return root.With(slog.String(KeyComponent, component))
}

// WithRun returns a child logger carrying the install run correlation id.
func WithRun(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With(slog.String(KeyRunID, runID))
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
