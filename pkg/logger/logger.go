// Package logger provides structured logging for the forensics service.
//
// JSON output is meant for log aggregators, text output for terminals.
//
// Usage:
//
//	log := logger.New("info", "json")
//	log.Info("analysis complete", "analysis_id", id, "duration_ms", 812)
//
// Output (json):
//
//	{"time":"2025-01-01T00:00:00Z","level":"INFO","msg":"analysis complete","analysis_id":"4f1c...","duration_ms":812}
//
// Output (text):
//
//	time=2025-01-01T00:00:00.000Z level=INFO msg="analysis complete" analysis_id=4f1c... duration_ms=812
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger is a structured logger wrapper.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to stderr, keeping stdout free for reports.
// Valid levels: debug, info, warn, error (case-insensitive); anything else
// means info. Format is "json" or "text"; anything else means text.
func New(level, format string) *Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter creates a Logger that writes to w.
func NewWithWriter(level, format string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{slog.New(handler)}
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with the given attributes added.
//
//	alog := log.With("analysis_id", id)
//	alog.Debug("decoded", "width", w, "height", h)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

// WithContext returns a Logger carrying the analysis ID stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := ctx.Value(ContextKeyAnalysisID); id != nil {
		return l.With("analysis_id", id)
	}
	return l
}

// ContextKey is the type for context keys to avoid collisions.
type ContextKey string

// ContextKeyAnalysisID carries the ID of the analysis a call belongs to.
const ContextKeyAnalysisID ContextKey = "analysis_id"

// WithAnalysisID stores id in the context for WithContext to pick up.
func WithAnalysisID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyAnalysisID, id)
}

// NopLogger returns a logger that discards all output.
func NopLogger() *Logger {
	return NewWithWriter("error", FormatText, io.Discard)
}
