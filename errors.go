package datagrid

import (
	"errors"
	"fmt"

	"github.com/tablekit/go-datagrid/celltype"
)

var (
	// ErrRowNotFound is returned when a row identifier is absent.
	ErrRowNotFound = errors.New("row not found")

	// ErrColumnNotFound is returned when a column identifier is absent.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateID is returned when adding a row or column whose
	// identifier is already taken.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrPositionOutOfRange is returned when a row position does not map
	// to a stored row.
	ErrPositionOutOfRange = errors.New("row position out of range")

	// ErrTimeout is returned when bounded polling of a long-running remote
	// operation is exhausted before completion.
	ErrTimeout = errors.New("timed out")
)

// ValidationError reports a cell value rejected by its column's type
// descriptor. The offending value is carried along so callers can keep it
// visible instead of discarding user input.
type ValidationError struct {
	ColumnID string
	Reason   string
	Raw      celltype.Value
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for column %s: %s", e.ColumnID, e.Reason)
}

// AdapterError wraps a failure reported by the active storage adapter. The
// coordinator produces exactly one per failed edit, after rollback.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
