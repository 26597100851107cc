package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyweek/internal/service"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"already active", service.ErrCycleAlreadyActive, http.StatusConflict},
		{"no prior cycle", service.ErrNoPriorCycle, http.StatusConflict},
		{"reflection gate shut", service.ErrReflectionNotOpen, http.StatusConflict},
		{"cycle not active", service.ErrCycleNotActive, http.StatusConflict},
		{"generation failed", service.ErrGenerationFailed, http.StatusBadGateway},
		{"content invalid", service.ErrContentInvalid, http.StatusBadGateway},
		{"partial write", service.ErrPartialWrite, http.StatusConflict},
		{"wrapped sentinel", fmt.Errorf("context: %w", service.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q, want application/json", ct)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if body.Error == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestRespondJSONNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusNoContent, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("204 response should have an empty body")
	}
}
