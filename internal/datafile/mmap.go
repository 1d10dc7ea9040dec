package datafile

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/mmap"
)

// mmapHandle is the memory-mapped alternative described in spec.md §9
// ("either a chunked stream reader or a memory-mapped linear scan
// satisfies the contract"), grounded on the graph-database teacher's
// MappedSSTable (pkg/lsm/sstable_mmap.go), which opens the same
// golang.org/x/exp/mmap.ReaderAt for random-access reads over an
// immutable on-disk structure.
type mmapHandle struct {
	path string
	r    *mmap.ReaderAt
}

// OpenMmap opens path as a memory-mapped read-only view. Selected by
// configuration (internal/config's useMmap) as an alternative to Open.
func OpenMmap(path string) (Handle, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datafile: mmap open %s: %w", path, err)
	}
	return &mmapHandle{path: path, r: r}, nil
}

func (h *mmapHandle) ReadAt(p []byte, off int64) (int, error) {
	return h.r.ReadAt(p, off)
}

func (h *mmapHandle) Close() error {
	return h.r.Close()
}

func (h *mmapHandle) Size() int64 {
	return int64(h.r.Len())
}

func (h *mmapHandle) Stat() (int64, time.Time, error) {
	info, err := os.Stat(h.path)
	if err != nil {
		return 0, time.Time{}, err
	}
	return info.Size(), info.ModTime(), nil
}
