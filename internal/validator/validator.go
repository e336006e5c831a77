package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"vitrine/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Get retourne l'instance unique du validateur, champs nommés par leur tag json
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate valide une structure, les erreurs enveloppent apperrors.ErrValidation
func Validate(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("le champ '%s' %s", e.Field(), getErrorMessage(e)))
	}

	return apperrors.NewValidation("%s", strings.Join(messages, "; "))
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "est requis"
	case "email":
		return "doit être un email valide"
	case "min":
		return fmt.Sprintf("doit contenir au moins %s caractères", e.Param())
	case "max":
		return fmt.Sprintf("ne doit pas dépasser %s caractères", e.Param())
	case "gte":
		return fmt.Sprintf("doit être supérieur ou égal à %s", e.Param())
	case "lte":
		return fmt.Sprintf("doit être inférieur ou égal à %s", e.Param())
	case "oneof":
		return fmt.Sprintf("doit valoir l'un de: %s", e.Param())
	case "url":
		return "doit être une URL valide"
	default:
		return fmt.Sprintf("est invalide (%s)", e.Tag())
	}
}
