package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindParse                  Kind = "parse_error"
	KindConnection             Kind = "connection_error"
	KindValidation             Kind = "validation_error"
	KindAPI                    Kind = "api_error"
	KindNotFound               Kind = "not_found"
	KindConfig                 Kind = "config_error"
	KindStorage                Kind = "storage_error"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrParse                  = &Error{Kind: KindParse}
	ErrConnection             = &Error{Kind: KindConnection}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrAPI                    = &Error{Kind: KindAPI}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrConfig                 = &Error{Kind: KindConfig}
	ErrStorage                = &Error{Kind: KindStorage}
)

// Error is the concrete error type.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an Error of kind for op with a formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of kind for op around err. Wrap(kind, op, nil) is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Validation is shorthand for New(KindValidation, ...).
func Validation(op, format string, args ...any) *Error {
	return New(KindValidation, op, format, args...)
}
