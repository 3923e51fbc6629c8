package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountNotFound is returned when an account id does not resolve.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a transaction id does not resolve.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidTransition is returned when a status transition is attempted
	// from a state other than the expected one, including any attempt to
	// leave a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError rejects a request with malformed or inconsistent input.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) ValidationError {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}
