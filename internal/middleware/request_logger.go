package middleware

import (
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/response"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

var inboundRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// accessRecorder captures what the handler sent so the access log can report it.
type accessRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (a *accessRecorder) WriteHeader(status int) {
	if a.status == 0 {
		a.status = status
	}
	a.ResponseWriter.WriteHeader(status)
}

func (a *accessRecorder) Write(p []byte) (int, error) {
	if a.status == 0 {
		a.status = http.StatusOK
	}
	n, err := a.ResponseWriter.Write(p)
	a.bytes += int64(n)
	return n, err
}

func (a *accessRecorder) Unwrap() http.ResponseWriter {
	return a.ResponseWriter
}

func (a *accessRecorder) code() int {
	if a.status == 0 {
		return http.StatusOK
	}
	return a.status
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); inboundRequestID.MatchString(id) {
		return id
	}
	return uuid.NewString()
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// RequestLogger attaches a request-scoped logger to the context, writes one
// access entry per request and turns panics into an internal error envelope.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r)
			w.Header().Set(RequestIDHeader, id)

			reqLogger := base.With(
				slog.String("request_id", id),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			ctx := logging.WithRequestID(logging.WithLogger(r.Context(), reqLogger), id)
			r = r.WithContext(ctx)
			rec := &accessRecorder{ResponseWriter: w}

			defer func() {
				if p := recover(); p != nil {
					reqLogger.Error("panic recovered", slog.Any("panic", p))
					if rec.status == 0 {
						response.Error(ctx, rec, http.StatusInternalServerError, "internal server error")
					}
				}
				status := rec.code()
				reqLogger.LogAttrs(ctx, accessLevel(status), "request completed",
					slog.String("route", r.Pattern),
					slog.Int("status", status),
					slog.Int64("bytes", rec.bytes),
					slog.String("remote_addr", clientIP(r)),
					slog.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
