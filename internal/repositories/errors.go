package repositories

import (
	"errors"
	"fmt"
)

// StoreErrorKind categorises durable-store failures. Callers branch on the
// kind, never on error message text.
type StoreErrorKind string

const (
	// ValidationFailed indicates the store rejected the row contents
	// (constraint violation, bad enum value).
	ValidationFailed StoreErrorKind = "VALIDATION_FAILED"

	// FieldNotFound indicates the durable schema is missing a column the
	// write expected. This is the schema-drift signal.
	FieldNotFound StoreErrorKind = "FIELD_NOT_FOUND"

	// TransportFailed indicates the write never reached the store or the
	// connection broke mid-flight.
	TransportFailed StoreErrorKind = "TRANSPORT_FAILED"
)

// StoreError is the error contract every repository implementation returns
// for a failed write.
type StoreError struct {
	Kind  StoreErrorKind
	Field string // set for FieldNotFound
	Err   error
}

func (e *StoreError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// KindOf returns the store error kind of err, or "" if err is not a
// StoreError.
func KindOf(err error) StoreErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsFieldNotFound reports whether err is a schema-drift rejection.
func IsFieldNotFound(err error) bool {
	return KindOf(err) == FieldNotFound
}
