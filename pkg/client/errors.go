package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a rejection from the service, carrying its JSON error envelope.
// Anything else returned by client calls is a connectivity failure.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s (%d)", e.Code, e.StatusCode)
}

// IsValidation reports whether err is a field-level validation rejection. The
// Fields map carries the per-field messages.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && len(apiErr.Fields) > 0
}

// IsDuplicateIdentity reports whether err is the 90-day duplicate tax ID
// conflict. The service names the offending field (CPF or CNPJ) in the
// message; that is the classification contract.
func IsDuplicateIdentity(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		return false
	}
	return strings.Contains(apiErr.Message, "CPF") || strings.Contains(apiErr.Message, "CNPJ")
}

// AsAPIError unwraps the service rejection, if err is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code = envelope.Error
	apiErr.Message = envelope.Message
	apiErr.Fields = envelope.Fields
	return apiErr
}
