// Package validator adapts go-playground/validator to echo's Validator
// interface so handlers can bind-and-validate in one step.
package validator

import (
	domainerrors "scanengine/internal/domain/errors"

	playground "github.com/go-playground/validator/v10"
)

type requestValidator struct {
	validate *playground.Validate
}

// New creates the echo validator backed by struct tags.
func New() *requestValidator {
	return &requestValidator{
		validate: playground.New(playground.WithRequiredStructEnabled()),
	}
}

// Validate implements echo.Validator.
func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
