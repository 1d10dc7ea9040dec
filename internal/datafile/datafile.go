// Package datafile gives the Slicer a read-only, concurrency-safe view
// over the immutable data file.
//
// Grounded on the teacher's segmentfile.SegmentFileManager interface
// (Append/ReadAt/Delete, for a mutable LSM segment store), repurposed
// here to drop Append and Delete entirely — the data file is never
// mutated by this process — and to keep only the positional-read path,
// which per spec.md §5 lets concurrent request handlers share one
// handle without serializing on a cursor.
package datafile

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Handle is a read-only, concurrency-safe view over the data file.
type Handle interface {
	io.ReaderAt
	io.Closer
	// Size returns the file size in bytes as of open; Stat does not
	// update it.
	Size() int64
	// Stat returns the current on-disk size and modification time,
	// independent of Size() above, for freshness checks.
	Stat() (size int64, mtime time.Time, err error)
}

type osHandle struct {
	f    *os.File
	size int64
}

// Open opens path read-only and stats it once to record its size.
func Open(path string) (Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datafile: opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("datafile: stat %s: %w", path, err)
	}
	return &osHandle{f: f, size: info.Size()}, nil
}

func (h *osHandle) ReadAt(p []byte, off int64) (int, error) {
	return h.f.ReadAt(p, off)
}

func (h *osHandle) Close() error {
	return h.f.Close()
}

func (h *osHandle) Size() int64 {
	return h.size
}

func (h *osHandle) Stat() (int64, time.Time, error) {
	info, err := h.f.Stat()
	if err != nil {
		return 0, time.Time{}, err
	}
	return info.Size(), info.ModTime(), nil
}
