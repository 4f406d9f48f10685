package session

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a user action failed.
type ErrorKind string

const (
	// KindInput is bad or missing user input. Nothing changed.
	KindInput ErrorKind = "input"
	// KindIO is a failed read or write against a file, clipboard or backend.
	KindIO ErrorKind = "io"
	// KindData is a persisted record that is missing or unreadable.
	KindData ErrorKind = "data"
)

var (
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrEmptyNames      = errors.New("both the people and the company lists must be non-empty")
	ErrEmptyText       = errors.New("text is empty")
	ErrNoProvider      = errors.New("no entity provider configured")
)

// Error is returned by every Session action.
type Error struct {
	Kind   ErrorKind
	Action string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a session error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func inputError(action string, err error) error {
	return &Error{Kind: KindInput, Action: action, Err: err}
}

func ioError(action string, err error) error {
	return &Error{Kind: KindIO, Action: action, Err: err}
}

func dataError(action string, err error) error {
	return &Error{Kind: KindData, Action: action, Err: err}
}
