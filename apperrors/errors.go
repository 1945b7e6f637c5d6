package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an AppError. The HTTP layer maps codes to statuses.
type ErrorCode string

const (
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrCodeConflict             ErrorCode = "CONFLICT"
	ErrCodeBadRequest           ErrorCode = "BAD_REQUEST"
	ErrCodeDatabaseError        ErrorCode = "DATABASE_ERROR"
)

// Sentinels for errors.Is checks. Matching is by code, so any AppError with
// the same code satisfies errors.Is(err, ErrNotFound).
var (
	ErrNotFound             = &AppError{Code: ErrCodeNotFound, Message: "not found"}
	ErrValidation           = &AppError{Code: ErrCodeValidation, Message: "validation failed"}
	ErrAuthenticationFailed = &AppError{Code: ErrCodeAuthenticationFailed, Message: "invalid username or password"}
	ErrUnauthorized         = &AppError{Code: ErrCodeUnauthorized, Message: "unauthorized"}
	ErrConflict             = &AppError{Code: ErrCodeConflict, Message: "conflict"}
	ErrDatabase             = &AppError{Code: ErrCodeDatabaseError, Message: "database error"}
)

// AppError is a typed application error.
type AppError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
	Cause   error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithField(field, reason string) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

// NewValidationError reports a single offending field.
func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, "validation failed").WithField(field, reason)
}

// NewFieldsError reports several offending fields at once.
func NewFieldsError(fields map[string]string) *AppError {
	e := New(ErrCodeValidation, "validation failed")
	for f, r := range fields {
		e.WithField(f, r)
	}
	return e
}

func NewNotFoundError(resource string, id any) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewConflictError(resource string, cause error) *AppError {
	return Wrap(cause, ErrCodeConflict, fmt.Sprintf("%s already exists", resource)).
		WithDetail("resource", resource)
}

func NewDatabaseError(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeDatabaseError, fmt.Sprintf("database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, reason)
}

// NewAuthenticationError is deliberately free of detail so a caller cannot
// tell an unknown username from a wrong password.
func NewAuthenticationError() *AppError {
	return New(ErrCodeAuthenticationFailed, "invalid username or password")
}

func NewBadRequestError(message string) *AppError {
	return New(ErrCodeBadRequest, message)
}

// As extracts the AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps an error to the status code the API answers with.
// Anything that is not an AppError is a server-side failure.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAuthenticationFailed, ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
