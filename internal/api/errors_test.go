package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	nxerrors "nxmeta/internal/errors"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		code nxerrors.ErrorCode
		want int
	}{
		{nxerrors.InvalidArgument, http.StatusBadRequest},
		{nxerrors.NotFound, http.StatusNotFound},
		{nxerrors.StructuralParse, http.StatusUnprocessableEntity},
		{nxerrors.MissingElement, http.StatusUnprocessableEntity},
		{nxerrors.BatchFileFailed, http.StatusUnprocessableEntity},
		{nxerrors.FetchFailed, http.StatusBadGateway},
		{nxerrors.ExportFailed, http.StatusInternalServerError},
		{nxerrors.InternalError, http.StatusInternalServerError},
		{"UNKNOWN_CODE", http.StatusInternalServerError}, // default case
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := MapErrorToStatus(tt.code); got != tt.want {
				t.Errorf("MapErrorToStatus(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	t.Run("writes basic error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("something went wrong"), http.StatusInternalServerError)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		var resp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Code != "INTERNAL_ERROR" {
			t.Errorf("Code = %q, want INTERNAL_ERROR", resp.Code)
		}
	})

	t.Run("wrapped coded error keeps its code", func(t *testing.T) {
		w := httptest.NewRecorder()
		inner := nxerrors.New(nxerrors.NotFound, "sheet PropertyInfo", nil)
		WriteNxError(w, fmt.Errorf("importing workbook: %w", inner))

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Code != "NOT_FOUND" {
			t.Errorf("Code = %q, want NOT_FOUND", resp.Code)
		}
		if resp.Error != "importing workbook: [NOT_FOUND] sheet PropertyInfo" {
			t.Errorf("Error = %q", resp.Error)
		}
	})
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"BadRequest", func(w http.ResponseWriter) { BadRequest(w, "bad") }, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"NotFound", func(w http.ResponseWriter) { NotFound(w, "gone") }, http.StatusNotFound, "NOT_FOUND"},
		{"InternalError", func(w http.ResponseWriter) { InternalError(w, "boom", nil) }, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"MethodNotAllowed", func(w http.ResponseWriter) { MethodNotAllowed(w, http.MethodPost) }, http.StatusMethodNotAllowed, "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("Code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}
