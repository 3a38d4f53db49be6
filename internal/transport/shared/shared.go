// Package shared centralizes JSON response envelopes so every handler returns
// the same shapes.
package shared

import (
	"encoding/json"
	"net/http"

	"credencia/pkg/domainerrors"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteError translates a coded domain error into an HTTP response.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	WriteJSON(w, domainerrors.ToHTTPStatus(code), ErrorBody{
		Error:   string(code),
		Message: domainerrors.MessageOf(err),
	})
}

// WriteValidationError reports field-level failures with a 400.
func WriteValidationError(w http.ResponseWriter, fields map[string]string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{
		Error:   string(domainerrors.CodeBadRequest),
		Message: "validation failed",
		Fields:  fields,
	})
}
