package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrForbidden       = errors.New("viewer not authorized to perform this action")
	ErrConflict        = errors.New("action not available in current state")

	// ErrStaleListing is returned by guarded repository updates when the
	// listing's status changed between read and write. Usecases surface
	// it to callers as ErrConflict.
	ErrStaleListing = errors.New("listing changed since it was read")
)

// ValidationError carries per-field messages for a rejected submission
// or update.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "invalid listing data: " + strings.Join(names, ", ")
}

// CollaboratorError classifies a failure of an external collaborator
// (storage, object store, identity). Callers treat it as retryable.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator failure in %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
