package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned (wrapped) for every contract violation.
var ErrInvalidInput = errors.New("invalid input")

// InputError names the offending field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
