package errors

import "fmt"

// ErrorCode represents a suitecov error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrInvalidSuite   ErrorCode = "INVALID_SUITE"   // 422
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// CovError represents a structured error with code, status, and details.
type CovError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CovError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CovError {
	return &CovError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a record that cannot be found.
func NewNotFound(kind, identifier string) *CovError {
	return &CovError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file or directory.
func NewFileNotFound(path string) *CovError {
	return &CovError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewInvalidSuite creates a 422 error for a suite whose populated fields
// contradict its kind.
func NewInvalidSuite(suite, reason string) *CovError {
	return &CovError{
		Code:    ErrInvalidSuite,
		Status:  422,
		Message: fmt.Sprintf("suite %q is structurally invalid: %s", suite, reason),
		Details: map[string]any{"suite": suite, "reason": reason},
	}
}

// NewCancelled creates a 499 error when an operation is cancelled by its context.
func NewCancelled(op string) *CovError {
	return &CovError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CovError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CovError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a CovError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CovError); ok {
		return cErr.Code == code
	}
	return false
}
