package model

import "errors"

// Error kinds reported by the services. Callers wrap them with context and
// match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidState    = errors.New("invalid state")
	ErrValidation      = errors.New("validation error")
)
