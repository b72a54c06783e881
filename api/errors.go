// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-chat.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the server.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrNotFound          = errors.New("resource not found")
	ErrNotSupported      = errors.New("operation not supported")

	// ErrWouldBlock is returned by non-blocking Transport calls that could not
	// make progress. It is never fatal.
	ErrWouldBlock = errors.New("operation would block")

	// ErrPeerClosed signals an orderly shutdown by the remote side.
	ErrPeerClosed = errors.New("peer closed connection")

	// ErrWriteFailed is returned by a queue drain that hit a hard write error.
	ErrWriteFailed = errors.New("write failed")

	// ErrMultiplexFailed is returned when the readiness wait itself fails.
	ErrMultiplexFailed = errors.New("multiplex failed")

	// ErrClosed is returned by components used after Close.
	ErrClosed = errors.New("closed")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeAlreadyExists
	ErrCodeNotFound
	ErrCodeWriteFailed
	ErrCodeMultiplexFailed
	ErrCodeInternal
)

var codeSentinels = map[ErrorCode]error{
	ErrCodeInvalidArgument:   ErrInvalidArgument,
	ErrCodeResourceExhausted: ErrResourceExhausted,
	ErrCodeAlreadyExists:     ErrAlreadyExists,
	ErrCodeNotFound:          ErrNotFound,
	ErrCodeWriteFailed:       ErrWriteFailed,
	ErrCodeMultiplexFailed:   ErrMultiplexFailed,
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes both the sentinel for Code and the underlying cause, so
// errors.Is matches either.
func (e *Error) Unwrap() []error {
	var errs []error
	if s, ok := codeSentinels[e.Code]; ok {
		errs = append(errs, s)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause records the error that triggered e.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// CodeOf returns the ErrorCode carried by err, or ErrCodeInternal when err is
// not a structured error. A nil err maps to ErrCodeOK.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
