package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/strategic-matchmaker/internal/matching"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Error codes written in the "error" field of JSON error bodies.
const (
	codeInvalidRequest = string(matching.KindInvalidRequest)
	codeInternal       = string(matching.KindInternal)
	codeNotFound       = "not_found"
	codeRateLimited    = "rate_limit_exceeded"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	if errors.As(err, &validation) {
		return http.StatusBadRequest
	}

	var matchErr *matching.Error
	if !errors.As(err, &matchErr) {
		return http.StatusInternalServerError
	}
	switch matchErr.Kind {
	case matching.KindUnauthorized:
		return http.StatusUnauthorized
	case matching.KindNotOnboarded, matching.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody returns the error code and a message safe to show to clients.
// Causes of internal errors are never exposed.
func errorBody(err error) (code, message string) {
	var validation *ErrValidation
	if errors.As(err, &validation) {
		return codeInvalidRequest, validation.Error()
	}

	var matchErr *matching.Error
	if errors.As(err, &matchErr) {
		return string(matchErr.Kind), matchErr.Message
	}
	return codeInternal, "internal server error"
}
