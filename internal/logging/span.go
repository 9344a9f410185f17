package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one unit of work. Its entries carry the trace id and a "span"
// group naming the span and its parent.
type Span struct {
	logger *slog.Logger
	start  time.Time
	attrs  []any
	failed error
}

// StartSpan opens a span under whatever span ctx already carries, starting a
// new trace when there is none.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	parent := scopeFrom(ctx)
	logger := FromContext(ctx)
	traceID := parent.traceID
	if traceID == "" {
		traceID = uuid.NewString()
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	group := []any{slog.String("id", spanID), slog.String("name", name)}
	if parent.spanID != "" {
		group = append(group, slog.String("parent", parent.spanID))
	}
	logger = logger.With(slog.Group("span", group...))

	ctx = update(ctx, func(s *scope) {
		s.logger = logger
		s.traceID = traceID
		s.spanID = spanID
	})
	return ctx, &Span{logger: logger, start: time.Now()}
}

// Annotate adds attributes to the entry End writes.
func (s *Span) Annotate(attrs ...slog.Attr) {
	if s == nil {
		return
	}
	for _, a := range attrs {
		s.attrs = append(s.attrs, a)
	}
}

// Fail marks the span as failed; End then logs at error level.
func (s *Span) Fail(err error) {
	if s == nil || err == nil {
		return
	}
	s.failed = err
}

func (s *Span) End() {
	if s == nil {
		return
	}
	args := append([]any{slog.Duration("duration", time.Since(s.start))}, s.attrs...)
	if s.failed != nil {
		s.logger.Error("span failed", append(args, slog.String("error", s.failed.Error()))...)
		return
	}
	s.logger.Debug("span completed", args...)
}
