package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Erreurs applicatives, testées avec errors.Is
var (
	// ErrNotFound indique une ressource absente.
	ErrNotFound = errors.New("ressource non trouvée")
	// ErrValidation indique des données refusées.
	ErrValidation = errors.New("données invalides")
	// ErrDuplicate indique un conflit d'unicité (email déjà utilisé...).
	ErrDuplicate = errors.New("ressource déjà existante")
	// ErrUnauthorized indique des identifiants absents ou incorrects.
	ErrUnauthorized = errors.New("authentification requise")
	// ErrForbidden indique un rôle insuffisant.
	ErrForbidden = errors.New("accès refusé")
)

// NewValidation enveloppe ErrValidation avec un message lisible
func NewValidation(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFound enveloppe ErrNotFound en précisant la ressource
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// HTTPStatus associe une erreur à son code HTTP, 500 par défaut
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
