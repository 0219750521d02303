// Package errors provides custom error types of the record store.
package errors

import (
	"errors"
	"fmt"
)

type (
	StatementError struct {
		Err error
	}
	ExecutionError struct {
		Err  error
		Code string
	}
	ScanningError struct {
		Err error
	}
	UnavailableError struct {
		Err error
	}
	FileError struct {
		Err  error
		Path string
	}
	ContextTimeoutExceededError struct {
		Err error
	}
	NotFoundError struct {
		Err error
		ID  string
	}
)

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: could not compile", e.Err.Error())
}

func (e *StatementError) Unwrap() error { return e.Err }

func (e *ExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: could not execute (code %s)", e.Err.Error(), e.Code)
	}
	return fmt.Sprintf("%s: could not execute", e.Err.Error())
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ScanningError) Error() string {
	return fmt.Sprintf("%s: could not scan", e.Err.Error())
}

func (e *ScanningError) Unwrap() error { return e.Err }

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: storage unavailable", e.Err.Error())
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err.Error())
}

func (e *FileError) Unwrap() error { return e.Err }

func (e *ContextTimeoutExceededError) Error() string {
	return fmt.Sprintf("%s: context timeout exceeded", e.Err.Error())
}

func (e *ContextTimeoutExceededError) Unwrap() error { return e.Err }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.ID)
}

// IsStoreError reports whether err originates from the persistence layer failing,
// as opposed to a record simply being absent.
func IsStoreError(err error) bool {
	var statementError *StatementError
	var executionError *ExecutionError
	var scanningError *ScanningError
	var unavailableError *UnavailableError
	var fileError *FileError
	var contextTimeoutExceededError *ContextTimeoutExceededError
	return errors.As(err, &statementError) ||
		errors.As(err, &executionError) ||
		errors.As(err, &scanningError) ||
		errors.As(err, &unavailableError) ||
		errors.As(err, &fileError) ||
		errors.As(err, &contextTimeoutExceededError)
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	var notFoundError *NotFoundError
	return errors.As(err, &notFoundError)
}
