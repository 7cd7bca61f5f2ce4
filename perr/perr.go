// Package perr defines the structured error type shared by every component
// of the pipeline engine.
package perr

import (
	"errors"
	"strings"
)

// Code classifies an error into one of the kinds enumerated by the error
// handling design: validation, compilation, load/resolve, dispatch, or a
// runtime condition that was coerced rather than raised.
type Code string

const (
	// EValidation covers malformed pipeline IR: empty names, arity
	// mismatches, dangling variable references, type parse failures.
	EValidation Code = "validation"
	// ECompilation covers a non-zero native compiler exit or a missing
	// artifact after a compile attempt.
	ECompilation Code = "compilation"
	// ELoad covers a shared-object open failure or a missing entry symbol.
	ELoad Code = "load"
	// EDispatch covers an unknown operator name in the interpreter.
	EDispatch Code = "dispatch"
	// ERuntime covers a coerced runtime condition (division by zero,
	// negative sqrt) and anything else that does not fit the other kinds.
	ERuntime Code = "runtime"
)

// Error is a logical stack trace: Op names the component/method where the
// error originated, Msg is a human-readable annotation, and Err is the
// wrapped cause (possibly another *Error).
type Error struct {
	Code Code
	Op   string
	Msg  string
	Err  error
}

// New builds an *Error from a code, an operation name, and a message.
func New(code Code, op, msg string) *Error {
	return &Error{Code: code, Op: op, Msg: msg}
}

// Wrap attaches op and msg to an existing error without losing its code, if
// it already carries one.
func Wrap(err error, op, msg string) *Error {
	if err == nil {
		return nil
	}
	code := ERuntime
	var pe *Error
	if errors.As(err, &pe) {
		code = pe.Code
	}
	return &Error{Code: code, Op: op, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" && e.Err != nil {
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
		return b.String()
	} else if e.Msg != "" {
		b.WriteString(e.Msg)
		return b.String()
	} else if e.Err != nil {
		b.WriteString(e.Err.Error())
		return b.String()
	}
	b.WriteString(string(e.Code))
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode returns the code of the outermost *Error in err's chain, or ERuntime
// if err is not (or does not wrap) a *Error.
func ErrorCode(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ERuntime
}

// ErrorOp returns the op of the outermost *Error in err's chain, or "".
func ErrorOp(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Op
	}
	return ""
}
