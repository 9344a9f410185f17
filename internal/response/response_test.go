package response

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(context.Background(), rec, http.StatusCreated, map[string]string{"id": "1"}, "created")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body struct {
		StatusCode int               `json:"statusCode"`
		Data       map[string]string `json:"data"`
		Message    string            `json:"message"`
		Success    bool              `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.StatusCode != 201 || !body.Success || body.Message != "created" || body.Data["id"] != "1" {
		t.Fatalf("unexpected envelope %+v", body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(context.Background(), rec, http.StatusNotFound, "video not found")

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false || body["message"] != "video not found" || body["statusCode"] != float64(404) {
		t.Fatalf("unexpected envelope %v", body)
	}
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) != 0 {
		t.Fatalf("expected empty errors array, got %v", body["errors"])
	}
}
