package shared

import "errors"

// ErrorKind classifies a DomainError for callers that need to branch on it
type ErrorKind string

const (
	KindValidation ErrorKind = "VALIDATION"
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindConflict   ErrorKind = "CONFLICT"
	KindApp        ErrorKind = "APP"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"-"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches errors with the same code so sentinel comparisons work with errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error of the generic application kind
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindApp,
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed input rejected before any write
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewNotFoundError reports a referenced entity that does not exist for the tenant
func NewNotFoundError(entity, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: entity + "_NOT_FOUND", Message: message}
}

// NewConflictError reports a duplicate or a violated status precondition
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// NewAppError reports a coded application failure such as a missing template
func NewAppError(code, message string) *DomainError {
	return &DomainError{Kind: KindApp, Code: code, Message: message}
}

// KindOf returns the kind of err, or "" when err is not a DomainError
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// ErrUniqueViolation is returned by repositories when an insert hits a unique constraint.
// Callers use it to turn a lost race into the duplicate-detected path.
var ErrUniqueViolation = errors.New("unique constraint violation")

// Common domain errors
var (
	ErrNotFound            = &DomainError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrAlreadyExists       = &DomainError{Kind: KindConflict, Code: "ALREADY_EXISTS", Message: "Resource already exists"}
	ErrInvalidInput        = &DomainError{Kind: KindValidation, Code: "INVALID_INPUT", Message: "Invalid input provided"}
	ErrConcurrencyConflict = &DomainError{Kind: KindConflict, Code: "CONCURRENCY_CONFLICT", Message: "Resource was modified by another process"}
	ErrUnauthorized        = &DomainError{Kind: KindApp, Code: "UNAUTHORIZED", Message: "Not authorized to perform this action"}
	ErrInvalidState        = &DomainError{Kind: KindConflict, Code: "INVALID_STATE", Message: "Operation not allowed in current state"}
)
