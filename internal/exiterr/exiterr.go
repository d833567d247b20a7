// Package exiterr carries process exit codes through cobra commands.
package exiterr

import (
	"errors"
	"fmt"
)

const (
	CodeFailure     = 1
	CodeConfig      = 3
	CodeUnavailable = 4
	// A vendor answered with an error envelope
	CodeRejected = 5
)

// Carries an exit code along with an error so the app can exit correctly
type ExitError struct {
	Err  error
	Code int
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d", e.Code)
	}

	return fmt.Sprintf("%d: %s", e.Code, e.Err.Error())
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func Wrap(code int, err error) error {
	return ExitError{Code: code, Err: err}
}

// Exit code for err. nil is 0 and errors without a code are CodeFailure.
func Code(err error) int {
	if err == nil {
		return 0
	}

	var exitErr ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return CodeFailure
}
