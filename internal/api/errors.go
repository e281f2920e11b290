package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	nxerrors "nxmeta/internal/errors"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error          string               `json:"error"`
	Code           string               `json:"code"`
	Details        interface{}          `json:"details,omitempty"`
	SuggestedFixes []nxerrors.FixAction `json:"suggestedFixes,omitempty"`
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := ErrorResponse{
		Error: err.Error(),
	}

	var nxErr *nxerrors.NxError
	if stderrors.As(err, &nxErr) {
		resp.Code = string(nxErr.Code)
		resp.Details = nxErr.Details
		resp.SuggestedFixes = nxErr.SuggestedFixes
	} else {
		resp.Code = string(nxerrors.InternalError)
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// WriteNxError writes err with the status mapped from its code.
func WriteNxError(w http.ResponseWriter, err error) {
	WriteError(w, err, MapErrorToStatus(nxerrors.CodeOf(err)))
}

// MapErrorToStatus maps error codes to HTTP status codes
func MapErrorToStatus(code nxerrors.ErrorCode) int {
	switch code {
	case nxerrors.InvalidArgument:
		return http.StatusBadRequest // 400
	case nxerrors.NotFound:
		return http.StatusNotFound // 404
	case nxerrors.StructuralParse, nxerrors.MissingElement, nxerrors.BatchFileFailed:
		return http.StatusUnprocessableEntity // 422
	case nxerrors.FetchFailed:
		return http.StatusBadGateway // 502
	case nxerrors.ExportFailed, nxerrors.InternalError:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// BadRequest writes a 400 Bad Request error
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, nxerrors.New(nxerrors.InvalidArgument, message, nil), http.StatusBadRequest)
}

// NotFound writes a 404 Not Found error
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, nxerrors.New(nxerrors.NotFound, message, nil), http.StatusNotFound)
}

// InternalError writes a 500 Internal Server Error
func InternalError(w http.ResponseWriter, message string, err error) {
	WriteError(w, nxerrors.New(nxerrors.InternalError, message, err), http.StatusInternalServerError)
}

// MethodNotAllowed writes a 405 with the allowed method.
func MethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	WriteError(w, nxerrors.Newf(nxerrors.InvalidArgument, "method not allowed, use %s", allowed), http.StatusMethodNotAllowed)
}
