package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeValidation          ErrCode = "validation_error"
	CodeInvalidAction       ErrCode = "invalid_action"
	CodeUnauthenticated     ErrCode = "unauthenticated"
	CodeForbidden           ErrCode = "forbidden"
	CodeNotFound            ErrCode = "not_found"
	CodeUpstreamUnavailable ErrCode = "upstream_unavailable"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func (e *AppError) Unwrap() error { return e.Err }

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrInvalidAction(action string) error {
	return &AppError{
		Code:    CodeInvalidAction,
		Message: "unknown action",
		Meta:    map[string]string{"action": action},
	}
}
func ErrUnauthenticated(msg string) error { return &AppError{Code: CodeUnauthenticated, Message: msg} }
func ErrForbidden(msg string) error       { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrNotFound(msg string) error        { return &AppError{Code: CodeNotFound, Message: msg} }

// ErrUpstream wraps a datastore or third-party failure on a path that must not
// degrade silently (e.g. the event write path).
func ErrUpstream(msg string, cause error) error {
	return &AppError{Code: CodeUpstreamUnavailable, Message: msg, Err: cause}
}

// Is reports whether err carries the given code.
func Is(err error, code ErrCode) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
