// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies business-rule failures so the HTTP layer can map
// them to status codes without string matching.
type ErrorKind string

const (
	ErrKindNotFound          ErrorKind = "not_found"
	ErrKindInsufficientStock ErrorKind = "insufficient_stock"
	ErrKindInvalidTransition ErrorKind = "invalid_transition"
	ErrKindOwnership         ErrorKind = "ownership_violation"
	ErrKindValidation        ErrorKind = "validation_error"
	ErrKindConflict          ErrorKind = "conflict"
	ErrKindInternal          ErrorKind = "internal_error"
)

type ServiceError struct {
	Kind    ErrorKind              `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NewServiceError(kind ErrorKind, message string) *ServiceError {
	return &ServiceError{Kind: kind, Message: message}
}

func NewServiceErrorf(kind ErrorKind, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *ServiceError) WithDetails(details map[string]interface{}) *ServiceError {
	e.Details = details
	return e
}

// KindOf extracts the error kind; unclassified errors (driver failures,
// context cancellation) report as internal.
func KindOf(err error) ErrorKind {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return ErrKindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
