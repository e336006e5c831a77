package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidation("le champ %s est requis", "name"), http.StatusBadRequest},
		{"not found", NotFound("projet"), http.StatusNotFound},
		{"duplicate wrapped", fmt.Errorf("register: %w", ErrDuplicate), http.StatusConflict},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"inconnue", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestValidationMessage(t *testing.T) {
	err := NewValidation("email invalide")
	assert.Equal(t, "email invalide", err.Error())
	assert.True(t, IsValidationError(err))
	assert.False(t, IsNotFoundError(err))
}

func TestNotFound(t *testing.T) {
	err := NotFound("message")
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "message: ressource non trouvée", err.Error())
}
