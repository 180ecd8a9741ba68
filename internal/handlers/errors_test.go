package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"equishare/internal/service"
	"equishare/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}

	contentType := recorder.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", contentType)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation error",
			err:        validation.ValidationError{Field: "email", Message: "invalid email format"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid usage cap",
			err:        service.ErrInvalidUsageCap,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid credentials",
			err:        service.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a group member",
			err:        service.ErrNotAGroupMember,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invite not found",
			err:        service.ErrInviteNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invite exhausted",
			err:        service.ErrInviteExhausted,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invite expired",
			err:        service.ErrInviteExpired,
			wantStatus: http.StatusGone,
		},
		{
			name:       "email taken",
			err:        service.ErrEmailTaken,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "wrapped invite exhausted",
			err:        fmt.Errorf("redeeming: %w", service.ErrInviteExhausted),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, tt.err)
			if recorder.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
		})
	}
}
