package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/strategic-matchmaker/internal/matching"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "status", Message: "bad"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("decode: %w", &ErrValidation{Field: "body"}), http.StatusBadRequest},
		{"unauthorized", &matching.Error{Kind: matching.KindUnauthorized}, http.StatusUnauthorized},
		{"not onboarded", &matching.Error{Kind: matching.KindNotOnboarded}, http.StatusBadRequest},
		{"invalid request", &matching.Error{Kind: matching.KindInvalidRequest}, http.StatusBadRequest},
		{"unknown kind", &matching.Error{Kind: "insufficient_data"}, http.StatusInternalServerError},
		{"persistence", &matching.Error{Kind: matching.KindPersistence}, http.StatusInternalServerError},
		{"internal", &matching.Error{Kind: matching.KindInternal}, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorBody_HidesInternalCauses(t *testing.T) {
	code, message := errorBody(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal", code)
	assert.Equal(t, "internal server error", message)

	code, message = errorBody(&matching.Error{
		Kind:    matching.KindNotOnboarded,
		Message: matching.MessageNotOnboarded,
		Err:     errors.New("row missing"),
	})
	assert.Equal(t, "not_onboarded", code)
	assert.Equal(t, "Complete onboarding first", message)

	code, message = errorBody(&ErrValidation{Field: "status", Message: "must be accepted"})
	assert.Equal(t, "invalid_request", code)
	assert.Contains(t, message, "status")
}
