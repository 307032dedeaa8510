// Package httputil centralizes JSON response writing and domain error
// translation so handlers stay thin.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "rollcall/pkg/domain-errors"
)

// ErrorResponse is the body returned for every domain error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status. Encoding failures are swallowed:
// the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates a coded domain error into an HTTP response. Uncoded
// errors map to a generic 500 so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, statusFor(code), ErrorResponse{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes a request body, rejecting unknown fields and trailing
// garbage. Returns a coded bad-request error suitable for WriteError.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
