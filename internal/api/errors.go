// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/metrics"
	"github.com/ManuGH/appsettings/internal/settings"
)

// Error codes returned in the "error" field of failed responses.
const (
	CodeNotFound       = "not_found"
	CodeTypeMismatch   = "type_mismatch"
	CodeInvalidRequest = "invalid_request"
	CodeUnavailable    = "unavailable"
	CodeInternal       = "internal_error"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	Path      string `json:"path,omitempty"`
	Expected  string `json:"expected,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem writes an error response with an explicit code.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, code string, detail string) {
	metrics.IncSettingError(code)
	writeJSON(w, status, ErrorResponse{
		Error:     code,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// writeError maps registry errors to HTTP: NotFound is 404, TypeMismatch is
// 422, anything else is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Detail:    err.Error(),
		RequestID: log.RequestIDFromContext(r.Context()),
	}
	status := http.StatusInternalServerError

	var (
		nf *settings.NotFoundError
		tm *settings.TypeMismatchError
	)
	switch {
	case errors.As(err, &nf):
		status, resp.Error, resp.Path = http.StatusNotFound, CodeNotFound, nf.Path
	case errors.As(err, &tm):
		status, resp.Error, resp.Path, resp.Expected = http.StatusUnprocessableEntity, CodeTypeMismatch, tm.Path, tm.Want.String()
	default:
		resp.Error = CodeInternal
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.internal_error").
			Msg("request failed")
	}
	metrics.IncSettingError(resp.Error)
	writeJSON(w, status, resp)
}
