package vectordb

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when a vector length differs from the collection dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNotFound is returned when a required id does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConnection is returned when the vector engine cannot be reached.
	ErrConnection = errors.New("vector engine unreachable")

	// ErrFilterSyntax is returned for malformed filter expressions.
	ErrFilterSyntax = errors.New("invalid filter expression")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("collection is closed")
)

// NotFoundError names the id that was missing.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DimensionError describes a vector of the wrong length.
type DimensionError struct {
	ID   string
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("document %q: vector has dimension %d, collection expects %d", e.ID, e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// ConnectionError wraps the engine error that made the collection unreachable.
func ConnectionError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrConnection, err)
}

// CheckDimension verifies every document vector against dim.
func CheckDimension(docs []*Document, dim int) error {
	for _, d := range docs {
		if d == nil {
			continue
		}
		if len(d.Vector) != dim {
			return &DimensionError{ID: d.ID, Got: len(d.Vector), Want: dim}
		}
	}
	return nil
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDimensionMismatch reports whether err is or wraps ErrDimensionMismatch.
func IsDimensionMismatch(err error) bool { return errors.Is(err, ErrDimensionMismatch) }

// IsConnectionError reports whether err is or wraps ErrConnection.
func IsConnectionError(err error) bool { return errors.Is(err, ErrConnection) }

// IsFilterSyntax reports whether err is or wraps ErrFilterSyntax.
func IsFilterSyntax(err error) bool { return errors.Is(err, ErrFilterSyntax) }
