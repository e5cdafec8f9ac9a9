package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrUnsupportedApproach is not returned as an error: an unsupported
	// approach still yields a result, and reports quote it as the reason for
	// the Invalid decision.
	ErrUnsupportedApproach = errors.New("unsupported decision approach")
)

// NewInvalidInputError names the offending field
func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

// IsInvalidInput reports whether err stems from rejected input values
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInsufficientData)
}
