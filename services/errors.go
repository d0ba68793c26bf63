package services

import "fmt"

// The error taxonomy the HTTP layer maps onto status codes. Store
// failures are wrapped in StoreError and otherwise propagated
// unmodified; everything else is a caller fault.

// ValidationError signals missing or malformed required input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func notFoundErrorf(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// ProtectedResourceError signals an attempt to mutate a default or
// synthesized resource.
type ProtectedResourceError struct {
	Msg string
}

func (e *ProtectedResourceError) Error() string { return e.Msg }

func protectedErrorf(format string, args ...any) error {
	return &ProtectedResourceError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError signals a duplicate where uniqueness is required, such
// as a category name reused within a column.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func conflictErrorf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidPlacementError signals a column/category mismatch on a task
// placement.
type InvalidPlacementError struct {
	Msg string
}

func (e *InvalidPlacementError) Error() string { return e.Msg }

func invalidPlacementErrorf(format string, args ...any) error {
	return &InvalidPlacementError{Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps an underlying data-store failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
