package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(message string) error {
	return goErrors.New(message)
}

// contextError annotates an error with the operation that caused it. The
// annotations compose, so a bubbled-up error reads like a call trace:
// "parse config: read file: permission denied".
type contextError struct {
	context string
	err     error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

// WithContext annotates err with the given context. The context should be a
// terse verb phrase describing what we were doing when the error occurred.
func WithContext(err error, context string) error {
	return contextError{context: context, err: err}
}

// RootCause returns the innermost error in a chain of context annotations.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(contextError)
		if !ok {
			return err
		}
		err = ctxErr.err
	}
}

// FriendlyError is an error with a message meant to be read by operators.
// Friendly messages are printed verbatim rather than as a context chain.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	message string
}

func (err friendlyError) Error() string {
	return err.message
}

func (err friendlyError) FriendlyMessage() string {
	return err.message
}

// NewFriendlyError creates an error whose message is shown to the user
// as-is. Use it for errors that the user is expected to act on.
func NewFriendlyError(format string, args ...interface{}) error {
	return friendlyError{message: fmt.Sprintf(format, args...)}
}

// GetPrintableMessage returns the message that should be shown to the user
// for the given error.
func GetPrintableMessage(err error) string {
	if friendly, ok := RootCause(err).(FriendlyError); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
