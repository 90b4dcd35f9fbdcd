// Package logging builds the structured loggers used by foreground commands
// and detached workers.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	attrRunID   = "run_id"
	attrMode    = "mode"
	attrService = "service"

	serviceName = "gatekeep"
)

// Format selects the record encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type runIDKey struct{}

// WithRunID returns a context whose log records carry runID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom extracts the run id stored by WithRunID.
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// RunHandler is an [slog.Handler] that adds the run id found in the record's
// context. Service and mode attributes are pre-attached at construction so
// they stay at the top level even when groups are used.
type RunHandler struct {
	inner slog.Handler
}

// NewRunHandler wraps inner, tagging every record with service and mode.
func NewRunHandler(inner slog.Handler, mode string) *RunHandler {
	attrs := []slog.Attr{slog.String(attrService, serviceName)}
	if mode != "" {
		attrs = append(attrs, slog.String(attrMode, mode))
	}
	return &RunHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (h *RunHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds the run id from ctx, then delegates.
func (h *RunHandler) Handle(ctx context.Context, record slog.Record) error {
	if id := RunIDFrom(ctx); id != "" {
		record.AddAttrs(slog.String(attrRunID, id))
	}
	if err := h.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("run handler: %w", err)
	}
	return nil
}

func (h *RunHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RunHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *RunHandler) WithGroup(name string) slog.Handler {
	return &RunHandler{inner: h.inner.WithGroup(name)}
}

// ParseLevel maps a level name to a slog.Level. Unknown names are an error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// New builds a logger writing to w.
func New(w io.Writer, format Format, level slog.Level, mode string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	if format == FormatJSON {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewRunHandler(inner, mode))
}
