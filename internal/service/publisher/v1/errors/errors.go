// Package errors provides custom error types of the leaderboard publisher.
package errors

import "fmt"

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	// PublishError means a leaderboard cycle was skipped.
	PublishError struct {
		Stage string
		Err   error
	}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("leaderboard %s failed: %v", e.Stage, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
