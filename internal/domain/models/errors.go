package models

import (
	"errors"
	"fmt"
)

// ErrValidation marks caller-side contract violations.
var ErrValidation = errors.New("validation failed")

// Invalid builds an ErrValidation with a field-level message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
