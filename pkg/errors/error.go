package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindCompilation   Kind = "compilation"
	KindEvaluation    Kind = "evaluation"
	KindRegistry      Kind = "registry"
	KindExclusivity   Kind = "exclusivity"
	KindConstructor   Kind = "constructor"
	KindConfiguration Kind = "configuration"
	KindRuntime       Kind = "runtime"
)

// Error codes.
const (
	CodeCompilation          = "B001"
	CodeEvaluation           = "B002"
	CodeUnregisteredHandler  = "B003"
	CodeExclusivity          = "B004"
	CodeConstructor          = "B005"
	CodeInvalidRoot          = "B006"
	CodeHandlerTarget        = "B007"
	CodeComponentNotFound    = "B008"
	CodeInvalidComponentName = "B009"
	CodeWriteRejected        = "B010"
	CodeConfigInvalid        = "B011"
)

// Error is a structured error with a code, a kind and an optional hint.
type Error struct {
	// Code is a unique error identifier (e.g., "B001").
	Code string

	// Kind is the error class.
	Kind Kind

	// Message is a short description of the error.
	Message string

	// Detail is a longer, instance-specific explanation.
	Detail string

	// Expression is the expression text involved, if any.
	Expression string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail adds an explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted explanation to the error.
func (e *Error) WithDetailf(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithExpression records the expression text the error relates to.
func (e *Error) WithExpression(text string) *Error {
	e.Expression = text
	return e
}

// WithSuggestion adds a fix hint to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap sets the underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Kind:    KindRuntime,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:    code,
		Kind:    template.Kind,
		Message: template.Message,
		Detail:  template.Detail,
	}
}

// Newf creates an uncoded Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error with the given code unless it already is one.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if stderrors.As(err, &be) {
		return be
	}
	return New(code).Wrap(err)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindRuntime when there is none.
func KindOf(err error) Kind {
	var be *Error
	if stderrors.As(err, &be) && be.Kind != "" {
		return be.Kind
	}
	return KindRuntime
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var be *Error
	if stderrors.As(err, &be) {
		return be.Code
	}
	return ""
}
