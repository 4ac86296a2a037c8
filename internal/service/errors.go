package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wellness-in-schools/video-library/internal/db"
)

// FieldError is one failed check on a submitted field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError represents a rejected submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// errOrNil returns e when it carries at least one field error.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError represents a single entity lookup that did not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError represents a write that collides with an existing record.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// TransientError represents a read that kept failing with throttling or
// overload after its retries ran out.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type TransientError struct {
	Operation  string
	RetryAfter time.Duration
	Cause      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("too many requests: %s: %v", e.Operation, e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// PartialFailureError reports a write that was committed while a follow-up
// step failed. The committed part must not be retried.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type PartialFailureError struct {
	Message string
	Cause   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Cause
}

// IsPartialFailure reports whether err is a PartialFailureError.
func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}

// notFoundOr converts db.ErrNotFound into a NotFoundError and leaves other
// errors untouched.
func notFoundOr(err error, resource, id string) error {
	if db.IsNotFound(err) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return err
}
