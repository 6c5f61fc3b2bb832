package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/retryexec/retryexec/internal/core"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusAccepted, map[string]string{"ok": "yes"})

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["ok"] != "yes" {
		t.Errorf("body = %v", body)
	}
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{core.ErrCodeInvalidRequest, http.StatusBadRequest},
		{core.ErrCodeValidationError, http.StatusUnprocessableEntity},
		{core.ErrCodeConfigError, http.StatusUnprocessableEntity},
		{core.ErrCodeNotFound, http.StatusNotFound},
		{core.ErrCodeConflict, http.StatusConflict},
		{core.ErrCodeQueuePaused, http.StatusConflict},
		{core.ErrCodeInternalError, http.StatusInternalServerError},
		{"mystery", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusForCode(tt.code); got != tt.want {
			t.Errorf("StatusForCode(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestHandleError_ExecError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, core.NewNotFoundError("Execution", "x"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != core.ErrCodeNotFound {
		t.Errorf("error body = %+v, want not_found", resp.Error)
	}
}

func TestHandleError_OpaqueError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("disk on fire"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
