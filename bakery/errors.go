/*
errors.go - Error types for the bakery engine

PURPOSE:
  All error types in one place. Two failure kinds exist:
  1. Storage failures - the store could not be read or written
  2. Invalid input  - a value the core refuses to persist

  Missing data is NOT an error. A date with no records reports zeros and a
  statement or month with nothing in it is returned with Empty set.

USAGE:
  if errors.Is(err, bakery.ErrInvalidInput) {
      // 400
  }
  var verr *bakery.ValidationError
  if errors.As(err, &verr) {
      log.Println(verr.Field)
  }

SEE ALSO:
  - service.go: Validation and storage wrapping
  - api/handlers.go: HTTP status mapping
*/
package bakery

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStorageFailure is returned when the store fails to read or write.
	// The operation is not retried.
	ErrStorageFailure = errors.New("storage failure")

	// ErrInvalidInput is returned when a value is rejected before persisting.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreRequired is returned when an operation requires a store capability
	// the configured store does not have (e.g. snapshots on the memory store).
	ErrStoreRequired = errors.New("operation requires extended store interface")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// StorageError wraps a store failure with the operation that hit it.
// It matches both ErrStorageFailure and the underlying cause.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageFailure, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageFailure, e.Err}
}

// ValidationError describes a rejected field.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStorageFailure returns true if the store failed.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}
