package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var stdout io.Writer = os.Stdout

// scope is the per-request logging state. It is copied on every change so a
// derived context never mutates its parent.
type scope struct {
	logger    *slog.Logger
	requestID string
	traceID   string
	spanID    string
}

type scopeKey struct{}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// New builds the JSON process logger. Unknown levels fall back to info.
func New(level string) *slog.Logger {
	lvl, _ := ParseLevel(level)
	return slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{AddSource: true, Level: lvl}))
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func update(ctx context.Context, change func(*scope)) context.Context {
	if ctx == nil {
		return ctx
	}
	s := scopeFrom(ctx)
	change(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithLogger stores logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return update(ctx, func(s *scope) { s.logger = logger })
}

// FromContext returns the request-scoped logger or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger := scopeFrom(ctx).logger; logger != nil {
		return logger
	}
	return slog.Default()
}

// WithUser tags the request logger with the authenticated user.
func WithUser(ctx context.Context, userID string) context.Context {
	if ctx == nil || userID == "" {
		return ctx
	}
	return WithLogger(ctx, FromContext(ctx).With(slog.String("user_id", userID)))
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return update(ctx, func(s *scope) { s.requestID = requestID })
}

func RequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return update(ctx, func(s *scope) { s.traceID = traceID })
}

func TraceIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).traceID
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	if spanID == "" {
		return ctx
	}
	return update(ctx, func(s *scope) { s.spanID = spanID })
}

func SpanIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).spanID
}
