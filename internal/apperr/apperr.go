// Package apperr is gridview's structured-error type, grounded on
// dd0wney-graphdb's pkg/storage/errors.go (sentinel errors plus a
// fluent ErrorBuilder carrying operation/entity/cause), adapted from
// graph-entity errors (node/edge) to file/row/column errors.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying a failure category, independent of the
// operation that produced it.
var (
	ErrFileNotFound   = errors.New("data file not found")
	ErrIndexStale     = errors.New("row index is stale")
	ErrIndexCorrupt   = errors.New("row index is corrupt")
	ErrRowOutOfRange  = errors.New("row out of range")
	ErrRebuildRunning = errors.New("index rebuild already in progress")
	ErrBadRequest     = errors.New("malformed request")
)

// GridError carries structured context about a failed operation.
type GridError struct {
	Op      string
	File    string
	Row     uint64
	HasRow  bool
	Cause   error
	Context string
}

func (e *GridError) Error() string {
	switch {
	case e.HasRow && e.Context != "":
		return fmt.Sprintf("%s %s row %d (%s): %v", e.Op, e.File, e.Row, e.Context, e.Cause)
	case e.HasRow:
		return fmt.Sprintf("%s %s row %d: %v", e.Op, e.File, e.Row, e.Cause)
	case e.Context != "":
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.File, e.Context, e.Cause)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Cause)
	}
}

func (e *GridError) Unwrap() error { return e.Cause }

func (e *GridError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// Builder is a fluent constructor for GridError, mirroring the
// teacher's ErrorBuilder.
type Builder struct {
	err GridError
}

func New(op string) *Builder {
	return &Builder{err: GridError{Op: op}}
}

func (b *Builder) File(path string) *Builder {
	b.err.File = path
	return b
}

func (b *Builder) Row(row uint64) *Builder {
	b.err.Row = row
	b.err.HasRow = true
	return b
}

func (b *Builder) Context(ctx string) *Builder {
	b.err.Context = ctx
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

func (b *Builder) Err() error { return &b.err }

// RowOutOfRangeError reports a request for a row beyond the file's
// known extent.
func RowOutOfRangeError(file string, row uint64) error {
	return New("slice").File(file).Row(row).Cause(ErrRowOutOfRange).Err()
}

// StaleIndexError reports an index that no longer matches its data
// file, per the freshness controller. detail describes what the
// controller observed (e.g. "size mismatch"); the sentinel
// ErrIndexStale is preserved for errors.Is matching.
func StaleIndexError(file string, detail error) error {
	b := New("freshness-check").File(file).Cause(ErrIndexStale)
	if detail != nil {
		b = b.Context(detail.Error())
	}
	return b.Err()
}

// IsNotFound reports whether err indicates a missing file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}

// IsStale reports whether err indicates an out-of-date index.
func IsStale(err error) bool {
	return errors.Is(err, ErrIndexStale)
}
