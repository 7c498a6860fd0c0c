// Package errors provides thin wrapping helpers used across the shell so
// call sites do not each invent their own fmt.Errorf phrasing.
package errors

import "fmt"

// Wrap returns a new error wrapping the passed error. If the passed error is
// nil, nil is returned.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w", err)
}

// Wrapf returns a new error wrapping the passed error with an added message.
// If the passed error is nil, nil is returned.
func Wrapf(err error, msg string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", fmt.Sprintf(msg, args...), err)
}
