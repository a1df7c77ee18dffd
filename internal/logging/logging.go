// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey ContextKey = "request_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	InitLogger(LevelWarn, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat maps "json" and "text" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// InitLogger initializes the global logger with the specified level and
// format. Logs go to stderr so they never mix with query output.
func InitLogger(level Level, format Format) {
	InitLoggerWithWriter(os.Stderr, level, format)
}

// InitLoggerWithWriter is InitLogger with an explicit destination.
func InitLoggerWithWriter(w io.Writer, level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// EnsureRequestID returns ctx unchanged if it already carries a request ID,
// otherwise a child context with a fresh random UUID.
func EnsureRequestID(ctx context.Context) context.Context {
	if GetRequestID(ctx) != "" {
		return ctx
	}
	return WithRequestID(ctx, uuid.NewString())
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if requestID := GetRequestID(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	return logger
}

// DatabaseOpened logs a successful open.
func DatabaseOpened(path string, pageSize int, pageCount uint32, args ...any) {
	allArgs := []any{
		"path", path,
		"page_size", pageSize,
		"page_count", pageCount,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Debug("database_opened", allArgs...)
}

// QueryPlanned logs the access path chosen for a query.
func QueryPlanned(ctx context.Context, table, plan string, args ...any) {
	allArgs := []any{
		"table", table,
		"plan", plan,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Debug("query_planned", allArgs...)
}

// QueryFinished logs the end of a result iteration.
func QueryFinished(ctx context.Context, table string, rows int64, duration time.Duration, err error) {
	allArgs := []any{
		"table", table,
		"rows", rows,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		allArgs = append(allArgs, "error", err.Error())
		LoggerFromContext(ctx).Warn("query_finished", allArgs...)
		return
	}
	LoggerFromContext(ctx).Debug("query_finished", allArgs...)
}
