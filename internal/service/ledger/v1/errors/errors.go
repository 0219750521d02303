// Package errors provides custom error types of the ledger service.
package errors

import (
	"errors"
	"fmt"
)

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	// NotANumberError means a numeric field could not be parsed as an integer.
	NotANumberError struct {
		Field string
		Value string
	}
	// NonPositiveError means a box count parsed but was zero or negative.
	NonPositiveError struct {
		Field string
		Value int64
	}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *NotANumberError) Error() string {
	return fmt.Sprintf("%s: %q is not a number", e.Field, e.Value)
}

func (e *NonPositiveError) Error() string {
	return fmt.Sprintf("%s: %d is not positive", e.Field, e.Value)
}

// IsValidation reports whether err is a submission validation failure.
func IsValidation(err error) bool {
	var notANumberError *NotANumberError
	var nonPositiveError *NonPositiveError
	return errors.As(err, &notANumberError) || errors.As(err, &nonPositiveError)
}
