package config

import (
	"errors"
	"fmt"
)

// ErrMalformedConfig is the kind of every error caused by a descriptor that
// cannot be parsed or lacks a required field. No build phase runs after it.
var ErrMalformedConfig = errors.New("malformed config")

// MalformedError describes where a descriptor went wrong.
type MalformedError struct {
	Source string
	Msg    string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		}
	}
	if e.Source == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedConfig, msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformedConfig, e.Source, msg)
}

// Is reports ErrMalformedConfig as the kind of the error.
func (e *MalformedError) Is(target error) bool { return target == ErrMalformedConfig }

func (e *MalformedError) Unwrap() error { return e.Err }

// Malformed builds a MalformedError for the given source.
func Malformed(source string, format string, args ...any) error {
	return &MalformedError{Source: source, Msg: fmt.Sprintf(format, args...)}
}

// WrapMalformed marks err as a MalformedConfig error for the given source.
// A nil err stays nil.
func WrapMalformed(source string, err error) error {
	if err == nil {
		return nil
	}
	var me *MalformedError
	if errors.As(err, &me) {
		return err
	}
	return &MalformedError{Source: source, Err: err}
}
