package network

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for them.
var (
	ErrDuplicateEntity   = errors.New("duplicate entity")
	ErrUnknownUnitKind   = errors.New("unknown unit kind")
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrDanglingReference = errors.New("dangling reference")
	ErrInvalidDirection  = errors.New("invalid feed flag")
	ErrInvalidCapacity   = errors.New("invalid capacity")
	ErrInvalidID         = errors.New("invalid id")
	ErrDuplicateJunction = errors.New("duplicate junction")
	ErrEmptyName         = errors.New("empty name")
	ErrAlreadyLinked     = errors.New("network already linked")
	ErrNotLinked         = errors.New("network not linked")
	ErrSealed            = errors.New("store is sealed")
	ErrAsymmetricLink    = errors.New("asymmetric link")
)

// Error provides structured error information for load and link operations.
type Error struct {
	Op     string // Operation that failed (e.g., "LoadUnits", "Link")
	Entity string // Entity kind (e.g., "unit", "stream", "junction")
	Name   string // Entity name (if applicable)
	Row    int    // 1-based row index within the batch, 0 if not row-scoped
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Name != "" && e.Row > 0:
		return fmt.Sprintf("%s %s %q (row %d): %v", e.Op, e.Entity, e.Name, e.Row, e.Cause)
	case e.Name != "":
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.Name, e.Cause)
	case e.Row > 0:
		return fmt.Sprintf("%s %s (row %d): %v", e.Op, e.Entity, e.Row, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building Errors.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Op: op}}
}

// Unit sets the entity to "unit" with the given name.
func (b *ErrorBuilder) Unit(name string) *ErrorBuilder {
	b.err.Entity = "unit"
	b.err.Name = name
	return b
}

// Stream sets the entity to "stream" with the given name.
func (b *ErrorBuilder) Stream(name string) *ErrorBuilder {
	b.err.Entity = "stream"
	b.err.Name = name
	return b
}

// Junction sets the entity to "junction".
func (b *ErrorBuilder) Junction() *ErrorBuilder {
	b.err.Entity = "junction"
	return b
}

// Capacity sets the entity to "capacity" for the given unit name.
func (b *ErrorBuilder) Capacity(unit string) *ErrorBuilder {
	b.err.Entity = "capacity"
	b.err.Name = unit
	return b
}

// Entity sets an arbitrary entity kind.
func (b *ErrorBuilder) Entity(kind string) *ErrorBuilder {
	b.err.Entity = kind
	return b
}

// Row sets the 1-based row index within the batch.
func (b *ErrorBuilder) Row(i int) *ErrorBuilder {
	b.err.Row = i
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() *Error {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// IsLoadError reports whether err came from a malformed or inconsistent batch.
func IsLoadError(err error) bool {
	return errors.Is(err, ErrDuplicateEntity) ||
		errors.Is(err, ErrUnknownUnitKind) ||
		errors.Is(err, ErrUnknownUnit) ||
		errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyName)
}

// IsLinkError reports whether err came from relationship linking.
func IsLinkError(err error) bool {
	return errors.Is(err, ErrDanglingReference) ||
		errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrDuplicateJunction) ||
		errors.Is(err, ErrAsymmetricLink)
}
