package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of domain error
type ErrorCode string

const (
	ErrConflict          ErrorCode = "CONFLICT"
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrPermissionDenied  ErrorCode = "PERMISSION_DENIED"
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrValidation        ErrorCode = "VALIDATION"
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrUnavailable       ErrorCode = "UNAVAILABLE"
	ErrInternal          ErrorCode = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to its HTTP status
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidTransition, ErrValidation:
		return http.StatusBadRequest
	case ErrPermissionDenied:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func Conflict(message string) *AppError {
	return &AppError{Code: ErrConflict, Message: message}
}

func InvalidTransition(message string) *AppError {
	return &AppError{Code: ErrInvalidTransition, Message: message}
}

func PermissionDenied(message string) *AppError {
	return &AppError{Code: ErrPermissionDenied, Message: message}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Validation(message string) *AppError {
	return &AppError{Code: ErrValidation, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrUnauthorized, Message: message}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{Code: ErrUnavailable, Message: message, Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Code: ErrInternal, Message: "internal server error", Err: err}
}

// IsCode reports whether err is an AppError carrying the given code
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
