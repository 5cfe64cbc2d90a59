package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// InvalidMember creates an AppError for a member that cannot be injected.
func InvalidMember(target, member, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidMember, Message: reason,
		Details: map[string]any{"target": target, "member": member},
	}
}

// UnresolvedDependency creates an AppError for a key with no registered provider.
func UnresolvedDependency(key string) *AppError {
	return &AppError{
		Code: ErrCodeUnresolvedDependency, Message: fmt.Sprintf("no binding registered for %s", key),
		Details: map[string]any{"key": key},
	}
}

// InvalidTarget creates an AppError for a type that has no injectable structure.
func InvalidTarget(target, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidTarget, Message: reason,
		Details: map[string]any{"target": target},
	}
}

// ContractViolation creates an AppError for misuse of a built plan.
func ContractViolation(target, reason string) *AppError {
	return &AppError{
		Code: ErrCodeContractViolation, Message: reason,
		Details: map[string]any{"target": target},
	}
}

// ConstructorFailed creates an AppError for a constructor that returned an error.
func ConstructorFailed(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConstructorFailed, Message: fmt.Sprintf("constructor for %s failed", key),
		Retryable: true, Details: map[string]any{"key": key}, Cause: cause,
	}
}

// AlreadyRegistered creates an AppError for a duplicate registration.
func AlreadyRegistered(key string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyRegistered, Message: fmt.Sprintf("%s is already registered", key),
		Details: map[string]any{"key": key},
	}
}

// InvalidConfig creates an AppError for configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Cause: cause,
	}
}

// IsAppError checks if an error is, or converts to, an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// Coder is implemented by domain errors that can describe themselves as an AppError.
type Coder interface {
	AppError() *AppError
}

// AsAppError converts an error to an AppError if possible. Errors in the
// chain implementing Coder are converted through their AppError method.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	var coder Coder
	if stderrors.As(err, &coder) {
		return coder.AppError(), true
	}
	return nil, false
}

// Wrap converts any error to an AppError. AppErrors pass through unchanged,
// anything else becomes an internal error carrying the original as its cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
