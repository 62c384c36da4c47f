package relkit

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a keyed operation matches no row.
	ErrNotFound = errors.New("relkit: record not found")

	// ErrIntegrity is returned when a primary-key filter matches more than
	// one row.
	ErrIntegrity = errors.New("relkit: integrity violation")
)

// SchemaError reports a record type whose shape cannot be mapped to a
// relation: no primary key, duplicate column names, an unsupported field
// type, or an unmappable field. It is fatal at registration time.
type SchemaError struct {
	Type string // Go type name of the record
	msg  string
}

// Error returns the error string.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("relkit: schema %s: %s", e.Type, e.msg)
}

// NewSchemaError returns a new SchemaError for the given record type.
func NewSchemaError(typ, format string, args ...any) *SchemaError {
	return &SchemaError{Type: typ, msg: fmt.Sprintf(format, args...)}
}

// IsSchemaError returns true if the error is a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e)
}

// UnsupportedOperationError reports a handler requested for a capability the
// record type does not declare. It is fatal at registration time, before any
// traffic is served.
type UnsupportedOperationError struct {
	Relation   string
	Capability Capability
}

// Error returns the error string.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("relkit: relation %s does not support %s", e.Relation, e.Capability)
}

// NewUnsupportedOperationError returns a new UnsupportedOperationError for
// the given relation and verb.
func NewUnsupportedOperationError(relation string, c Capability) *UnsupportedOperationError {
	return &UnsupportedOperationError{Relation: relation, Capability: c}
}

// IsUnsupportedOperation returns true if the error is an
// UnsupportedOperationError.
func IsUnsupportedOperation(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedOperationError
	return errors.As(err, &e)
}

// InvalidFilterError reports malformed per-request list input: a predicate
// over an undeclared column, or a negative or non-integer pagination value.
// It is surfaced as a client error.
type InvalidFilterError struct {
	Column string // Offending column name, if any
	msg    string
}

// Error returns the error string.
func (e *InvalidFilterError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("relkit: invalid filter on %q: %s", e.Column, e.msg)
	}
	return fmt.Sprintf("relkit: invalid filter: %s", e.msg)
}

// NewInvalidFilterError returns a new InvalidFilterError. The column may be
// empty when the error is not tied to a specific column.
func NewInvalidFilterError(column, format string, args ...any) *InvalidFilterError {
	return &InvalidFilterError{Column: column, msg: fmt.Sprintf(format, args...)}
}

// IsInvalidFilter returns true if the error is an InvalidFilterError.
func IsInvalidFilter(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidFilterError
	return errors.As(err, &e)
}

// EmptyUpdateError reports an update request that supplies no fields.
// No statement is built or executed. It is surfaced as a client error.
type EmptyUpdateError struct {
	Relation string
}

// Error returns the error string.
func (e *EmptyUpdateError) Error() string {
	return fmt.Sprintf("relkit: empty update for relation %s", e.Relation)
}

// NewEmptyUpdateError returns a new EmptyUpdateError for the given relation.
func NewEmptyUpdateError(relation string) *EmptyUpdateError {
	return &EmptyUpdateError{Relation: relation}
}

// IsEmptyUpdate returns true if the error is an EmptyUpdateError.
func IsEmptyUpdate(err error) bool {
	if err == nil {
		return false
	}
	var e *EmptyUpdateError
	return errors.As(err, &e)
}

// NotFoundError reports a keyed operation that matched no row.
type NotFoundError struct {
	label string
	key   any // Optional: the key that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.key != nil {
		return fmt.Sprintf("relkit: %s not found (key=%v)", e.label, e.key)
	}
	return fmt.Sprintf("relkit: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the relation label.
func (e *NotFoundError) Label() string {
	return e.label
}

// Key returns the key that was searched for, if available.
func (e *NotFoundError) Key() any {
	return e.key
}

// NewNotFoundError returns a new NotFoundError for the given relation.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithKey returns a new NotFoundError with the key that was
// searched for.
func NewNotFoundErrorWithKey(label string, key any) *NotFoundError {
	return &NotFoundError{label: label, key: key}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// IntegrityError reports a primary-key filter that matched more than one
// row. This is an internal invariant violation, not recoverable locally; it
// is surfaced as a server error and logged.
type IntegrityError struct {
	label string
	count int // Number of rows matched (-1 if unknown)
}

// Error returns the error string.
func (e *IntegrityError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("relkit: %s key matched %d rows, expected 1", e.label, e.count)
	}
	return fmt.Sprintf("relkit: %s key matched multiple rows", e.label)
}

// Is reports whether the target error matches IntegrityError.
// This allows errors.Is(integrityErr, ErrIntegrity) to return true.
func (e *IntegrityError) Is(err error) bool {
	return err == ErrIntegrity
}

// Label returns the relation label.
func (e *IntegrityError) Label() string {
	return e.label
}

// Count returns the number of rows matched, or -1 if unknown.
func (e *IntegrityError) Count() int {
	return e.count
}

// NewIntegrityError returns a new IntegrityError for the given relation.
func NewIntegrityError(label string) *IntegrityError {
	return &IntegrityError{label: label, count: -1}
}

// NewIntegrityErrorWithCount returns a new IntegrityError with the matched
// row count.
func NewIntegrityErrorWithCount(label string, count int) *IntegrityError {
	return &IntegrityError{label: label, count: count}
}

// IsIntegrity returns true if the error is an IntegrityError.
func IsIntegrity(err error) bool {
	if err == nil {
		return false
	}
	var e *IntegrityError
	return errors.As(err, &e) || errors.Is(err, ErrIntegrity)
}

// ConnectionError reports a connection or transport failure from the
// database client. The core never retries; callers may retry at a higher
// layer.
type ConnectionError struct {
	wrap error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("relkit: connection failure: %v", e.wrap)
}

// Unwrap returns the underlying driver error.
func (e *ConnectionError) Unwrap() error {
	return e.wrap
}

// NewConnectionError wraps a driver error as a ConnectionError.
func NewConnectionError(err error) *ConnectionError {
	return &ConnectionError{wrap: err}
}

// IsConnection returns true if the error is a ConnectionError.
func IsConnection(err error) bool {
	if err == nil {
		return false
	}
	var e *ConnectionError
	return errors.As(err, &e)
}

// CanceledError reports that statement execution was interrupted by context
// cancellation or deadline expiry. It is distinct from ConnectionError so
// callers can tell an abandoned request from a failing database.
type CanceledError struct {
	wrap error
}

// Error returns the error string.
func (e *CanceledError) Error() string {
	return fmt.Sprintf("relkit: execution canceled: %v", e.wrap)
}

// Unwrap returns the underlying context error.
func (e *CanceledError) Unwrap() error {
	return e.wrap
}

// NewCanceledError wraps a context error as a CanceledError.
func NewCanceledError(err error) *CanceledError {
	return &CanceledError{wrap: err}
}

// IsCanceled returns true if the error is a CanceledError.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	var e *CanceledError
	return errors.As(err, &e)
}
