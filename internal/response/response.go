// Package response writes the uniform JSON envelope returned by every endpoint.
package response

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidtube/backend/internal/logging"
)

// Envelope wraps every successful response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorEnvelope wraps every failed response.
type ErrorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// JSON writes data inside a success envelope.
func JSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	write(ctx, w, status, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// Error writes an error envelope. details are optional field-level messages.
func Error(ctx context.Context, w http.ResponseWriter, status int, message string, details ...string) {
	if details == nil {
		details = []string{}
	}
	write(ctx, w, status, ErrorEnvelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

func write(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	logger := logging.FromContext(ctx)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("encode response body", "status", status, "error", err)
		return
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}
