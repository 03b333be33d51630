package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUploadFailed         = errors.New("upload failed")
	ErrNotFound             = errors.New("project not found")
	ErrNetwork              = errors.New("repository unreachable")
	ErrTimeout              = errors.New("operation timed out")
)

// ValidationError names the fields that failed validation.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s %s", strings.Join(e.Fields, ", "), e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError is a shorthand for a single-reason validation failure.
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: reason}
}

// ValidationFields extracts the offending fields from err, if any.
func ValidationFields(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
