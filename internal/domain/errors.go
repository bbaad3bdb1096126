package domain

import "errors"

// Error classes surfaced by the resource core. Callers add detail by wrapping
// with fmt.Errorf("%w: ...") and classify with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
)
