package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures
type ErrorKind string

const (
	KindNotTrained       ErrorKind = "NotTrained"
	KindInsufficientData ErrorKind = "InsufficientData"
	KindMalformedInput   ErrorKind = "MalformedInput"
)

// Sentinels for errors.Is checks
var (
	ErrNotTrained       = &Error{Kind: KindNotTrained, Message: "model not trained yet"}
	ErrInsufficientData = &Error{Kind: KindInsufficientData, Message: "insufficient training data"}
	ErrMalformedInput   = &Error{Kind: KindMalformedInput, Message: "malformed input"}
)

// Error is a structured domain error
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NotTrained builds a NotTrained error
func NotTrained(format string, args ...any) error {
	return &Error{Kind: KindNotTrained, Message: fmt.Sprintf(format, args...)}
}

// InsufficientData builds an InsufficientData error
func InsufficientData(format string, args ...any) error {
	return &Error{Kind: KindInsufficientData, Message: fmt.Sprintf(format, args...)}
}

// MalformedInput builds a MalformedInput error
func MalformedInput(format string, args ...any) error {
	return &Error{Kind: KindMalformedInput, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a domain error, or "" for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
