// Package errs defines the closed taxonomy of error kinds Nugget's core
// subsystems raise, and the HTTP status each maps to.
package errs

import "fmt"

// Kind identifies one of the error categories from the error handling design.
type Kind string

const (
	ConfigError           Kind = "ConfigError"
	RouteNotFound         Kind = "RouteNotFound"
	BadPayload            Kind = "BadPayload"
	TemplateSyntaxError   Kind = "TemplateSyntaxError"
	InvalidVariableRange  Kind = "InvalidVariableRange"
	ScriptRuntimeError    Kind = "ScriptRuntimeError"
	ScriptReturnShape     Kind = "ScriptReturnShape"
	ScriptConversionError Kind = "ScriptConversionError"
)

// Error is a Nugget error carrying a Kind alongside the usual message chain.
type Error struct {
	kind    Kind
	message string
	wrapped error
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), wrapped: err}
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// HTTPStatus returns the status code the error handling design assigns to kind.
func HTTPStatus(kind Kind) int {
	switch kind {
	case RouteNotFound:
		return 404
	case BadPayload:
		return 400
	case TemplateSyntaxError, InvalidVariableRange, ScriptRuntimeError, ScriptReturnShape, ScriptConversionError:
		return 500
	default:
		return 500
	}
}

// As extracts a *Error from err, if any is present in its chain.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return nil, false
}
