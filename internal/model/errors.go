package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies every failure the service surfaces to callers.
type ErrorCode string

const (
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeServiceUnavailable ErrorCode = "service_unavailable"
	CodeTimeout            ErrorCode = "timeout"
	CodeRenderFailed       ErrorCode = "render_failed"
	CodePublishFailed      ErrorCode = "publish_failed"
	CodeMintPrecondition   ErrorCode = "mint_precondition"
	CodeMintRejected       ErrorCode = "mint_rejected"
	CodeConfigMissing      ErrorCode = "config_missing"
	CodeInvalidInput       ErrorCode = "invalid_input"
)

// Error is a coded error with an optional pipeline stage tag. Transient
// marks failures that occurred before any server-side effect could have
// been confirmed; only those are safe to retry.
type Error struct {
	Code      ErrorCode
	Stage     string
	Message   string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a coded error.
func E(code ErrorCode, stage, message string, err error) *Error {
	return &Error{Code: code, Stage: stage, Message: message, Err: err}
}

// Transient builds a coded error that is safe to retry.
func Transient(code ErrorCode, stage, message string, err error) *Error {
	return &Error{Code: code, Stage: stage, Message: message, Transient: true, Err: err}
}

// CodeOf extracts the error code, or empty when err is not a coded error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// StageOf extracts the stage tag, or empty when err carries none.
func StageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// IsTransient reports whether err is safe to retry.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Transient
	}
	return false
}

// HTTPStatus maps an error code to the status the handlers respond with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeMintPrecondition, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeServiceUnavailable, CodeRenderFailed, CodePublishFailed,
		CodeMintRejected, CodeConfigMissing:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
