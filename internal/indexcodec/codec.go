// Package indexcodec serializes and deserializes a rowindex.Index to
// and from disk, per spec.md §4.2.
//
// On-disk format (little-endian):
//
//	offset 0, 4 bytes:  magic "RIDX"
//	offset 4, 1 byte:   format version (currently 1)
//	offset 5, 3 bytes:  reserved, zero
//	offset 8, 8 bytes:  totalRows (u64)
//	offset 16, 8 bytes: granularity (u64)
//	offset 24, 8*E:     offsets[0..E] (u64 each)
//
// Load also accepts the legacy header-only form with no magic prefix
// (totalRows straight at offset 0), per spec.md §4.2's interop
// requirement, resolving Open Question 4 in favor of adding a magic
// number while staying compatible with indexes written before it
// existed.
package indexcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"gridview/internal/rowindex"
)

var magic = [4]byte{'R', 'I', 'D', 'X'}

const formatVersion = 1
const headerSize = 8 // magic(4) + version(1) + reserved(3)
const legacyFieldSize = 8

// Save writes idx to path in the versioned format above, overwriting
// any existing file.
func Save(path string, idx *rowindex.Index) error {
	buf := new(bytes.Buffer)
	buf.Write(magic[:])
	buf.WriteByte(formatVersion)
	buf.Write([]byte{0, 0, 0})

	if err := binary.Write(buf, binary.LittleEndian, idx.TotalRows); err != nil {
		return fmt.Errorf("indexcodec: encoding totalRows: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, idx.Granularity); err != nil {
		return fmt.Errorf("indexcodec: encoding granularity: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, idx.Offsets); err != nil {
		return fmt.Errorf("indexcodec: encoding offsets: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("indexcodec: writing %s: %w", path, err)
	}
	return nil
}

// Load reads an index previously written by Save (or a legacy
// header-only artifact). The bool return is false if path does not
// exist; a malformed file is a loud error, never a silent "not found".
func Load(path string) (*rowindex.Index, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("indexcodec: reading %s: %w", path, err)
	}

	body := data
	if len(data) >= headerSize && bytes.Equal(data[:4], magic[:]) {
		version := data[4]
		if version != formatVersion {
			return nil, true, fmt.Errorf("indexcodec: %s: unsupported format version %d", path, version)
		}
		body = data[headerSize:]
	}

	idx, err := decodeBody(body)
	if err != nil {
		return nil, true, fmt.Errorf("indexcodec: %s: %w", path, err)
	}
	return idx, true, nil
}

func decodeBody(body []byte) (*rowindex.Index, error) {
	if len(body) < 2*legacyFieldSize {
		return nil, fmt.Errorf("truncated header: %d bytes", len(body))
	}

	totalRows := binary.LittleEndian.Uint64(body[0:8])
	granularity := binary.LittleEndian.Uint64(body[8:16])

	rest := body[16:]
	if len(rest)%8 != 0 {
		return nil, fmt.Errorf("offsets length %d is not a multiple of 8", len(rest))
	}

	count := len(rest) / 8
	offsets := make([]uint64, count)
	for i := 0; i < count; i++ {
		offsets[i] = binary.LittleEndian.Uint64(rest[i*8 : i*8+8])
	}

	return &rowindex.Index{
		TotalRows:   totalRows,
		Granularity: granularity,
		Offsets:     offsets,
	}, nil
}

// sidecarSuffix names the file that stores the stronger (size, mtime)
// freshness check described in spec.md §9 Open Question 3.
const sidecarSuffix = ".meta"

// SidecarPath returns the identity-sidecar path for a given index path.
func SidecarPath(indexPath string) string {
	return indexPath + sidecarSuffix
}

// SaveSidecar persists the data file's (size, mtime) alongside the
// index, so a later run can tell the file is unchanged without relying
// on the approximate row-count bounds check.
func SaveSidecar(indexPath string, size int64, mtime time.Time) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, size); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, mtime.UnixNano()); err != nil {
		return err
	}
	return os.WriteFile(SidecarPath(indexPath), buf.Bytes(), 0644)
}

// LoadSidecar reads the (size, mtime) sidecar. ok is false if absent or
// malformed — a missing/bad sidecar is not fatal: freshness.Default falls
// back to the bounds heuristic, while freshness.StatController treats the
// index as stale.
func LoadSidecar(indexPath string) (size int64, mtime time.Time, ok bool) {
	data, err := os.ReadFile(SidecarPath(indexPath))
	if err != nil || len(data) != 16 {
		return 0, time.Time{}, false
	}
	size = int64(binary.LittleEndian.Uint64(data[0:8]))
	nanos := int64(binary.LittleEndian.Uint64(data[8:16]))
	return size, time.Unix(0, nanos), true
}
