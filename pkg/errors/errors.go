// Package errors defines the typed error used across the edgemcp runtime so
// that every layer (registry, composite executor, bytecode interpreter,
// driver bridge, auth manager) can report failures with a stable Type that
// maps directly onto the wire status codes.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

// Type is a stable error category. The string values double as the
// lower_snake_case tag used in Error() and in structured log fields.
type Type string

// Error categories. There is deliberately no success category: success is
// never wrapped as an error value, only used as a Status on the wire.
const (
	ErrInvalidParams    Type = "invalid_params"
	ErrNotFound         Type = "not_found"
	ErrExecution        Type = "execution_error"
	ErrPermissionDenied Type = "permission_denied"
	ErrTimeout          Type = "timeout"
	ErrNotImplemented   Type = "not_implemented"
	ErrAlreadyExists    Type = "already_exists"
	ErrFull             Type = "full"
	ErrInternal         Type = "internal"
)

// Error is the edgemcp runtime's error value: a stable Type, a
// human-readable Message, and an optional wrapped Cause.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError constructs an *Error of the given type.
func NewError(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// NewInvalidParamsError reports a malformed or missing request field.
func NewInvalidParamsError(message string, cause error) *Error {
	return NewError(ErrInvalidParams, message, cause)
}

// NewNotFoundError reports an unknown tool, driver, or sub-tool reference.
func NewNotFoundError(message string, cause error) *Error {
	return NewError(ErrNotFound, message, cause)
}

// NewExecutionError reports a failure while running a composite step,
// bytecode program, or native handler.
func NewExecutionError(message string, cause error) *Error {
	return NewError(ErrExecution, message, cause)
}

// NewPermissionDeniedError reports an auth gate rejection.
func NewPermissionDeniedError(message string, cause error) *Error {
	return NewError(ErrPermissionDenied, message, cause)
}

// NewTimeoutError reports a bytecode step-budget or other bounded-execution
// overrun.
func NewTimeoutError(message string, cause error) *Error {
	return NewError(ErrTimeout, message, cause)
}

// NewNotImplementedError reports an unimplemented tool kind (Script).
func NewNotImplementedError(message string, cause error) *Error {
	return NewError(ErrNotImplemented, message, cause)
}

// NewAlreadyExistsError reports a name collision on registration.
func NewAlreadyExistsError(message string, cause error) *Error {
	return NewError(ErrAlreadyExists, message, cause)
}

// NewFullError reports exhaustion of the registry's fixed tool-slot capacity.
func NewFullError(message string, cause error) *Error {
	return NewError(ErrFull, message, cause)
}

// NewInternalError reports a fatal condition that should abort core init:
// registry allocation failure, an unreachable KV backend, or unparsable
// persisted auth configuration.
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// Status maps e's Type onto the wire status taxonomy (spec §6). AlreadyExists
// and Full surface as the generic Error status: they are reported as
// register-time outcomes, not part of the per-tool-kind dispatch result set.
func (e *Error) Status() mcpstatus.Status {
	switch e.Type {
	case ErrInvalidParams:
		return mcpstatus.InvalidParams
	case ErrNotFound:
		return mcpstatus.NotFound
	case ErrExecution:
		return mcpstatus.ExecutionError
	case ErrPermissionDenied:
		return mcpstatus.PermissionDenied
	case ErrTimeout:
		return mcpstatus.Timeout
	case ErrNotImplemented:
		return mcpstatus.NotImplemented
	default:
		return mcpstatus.Error
	}
}

// ToToolResult converts err into a wire ToolResult via Status, or the
// generic Error status if err is not an *Error.
func ToToolResult(err error) mcpstatus.ToolResult {
	var e *Error
	if stderrors.As(err, &e) {
		return mcpstatus.ErrorResult(e.Status(), e.Error())
	}
	return mcpstatus.ErrorResult(mcpstatus.Error, err.Error())
}

func is(err error, t Type) bool {
	e, ok := err.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Type == t
}

// IsInvalidParams reports whether err is an *Error of type ErrInvalidParams.
func IsInvalidParams(err error) bool { return is(err, ErrInvalidParams) }

// IsNotFound reports whether err is an *Error of type ErrNotFound.
func IsNotFound(err error) bool { return is(err, ErrNotFound) }

// IsExecution reports whether err is an *Error of type ErrExecution.
func IsExecution(err error) bool { return is(err, ErrExecution) }

// IsPermissionDenied reports whether err is an *Error of type ErrPermissionDenied.
func IsPermissionDenied(err error) bool { return is(err, ErrPermissionDenied) }

// IsTimeout reports whether err is an *Error of type ErrTimeout.
func IsTimeout(err error) bool { return is(err, ErrTimeout) }

// IsNotImplemented reports whether err is an *Error of type ErrNotImplemented.
func IsNotImplemented(err error) bool { return is(err, ErrNotImplemented) }

// IsAlreadyExists reports whether err is an *Error of type ErrAlreadyExists.
func IsAlreadyExists(err error) bool { return is(err, ErrAlreadyExists) }

// IsFull reports whether err is an *Error of type ErrFull.
func IsFull(err error) bool { return is(err, ErrFull) }

// IsInternal reports whether err is an *Error of type ErrInternal.
func IsInternal(err error) bool { return is(err, ErrInternal) }
