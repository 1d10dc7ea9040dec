package indexcodec

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gridview/internal/rowindex"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	idx := &rowindex.Index{
		TotalRows:   5,
		Granularity: 2,
		Offsets:     []uint64{0, 26, 57},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")

	if err := Save(path, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected found = true")
	}
	if got.TotalRows != idx.TotalRows || got.Granularity != idx.Granularity {
		t.Errorf("got %+v, want %+v", got, idx)
	}
	if len(got.Offsets) != len(idx.Offsets) {
		t.Fatalf("offsets length mismatch: %v vs %v", got.Offsets, idx.Offsets)
	}
	for i := range idx.Offsets {
		if got.Offsets[i] != idx.Offsets[i] {
			t.Errorf("Offsets[%d] = %d, want %d", i, got.Offsets[i], idx.Offsets[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, found, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Error("expected found = false for missing file")
	}
}

func TestLoadLegacyHeaderOnlyForm(t *testing.T) {
	idx := &rowindex.Index{TotalRows: 3, Granularity: 1, Offsets: []uint64{0, 4, 8}}

	// Simulate a pre-magic-number artifact by writing the body with no
	// prefix at all.
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.bin")
	if err := Save(path, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	legacy := data[headerSize:]
	if err := os.WriteFile(path, legacy, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, found, err := Load(path)
	if err != nil {
		t.Fatalf("Load legacy: %v", err)
	}
	if !found {
		t.Fatal("expected found = true")
	}
	if got.TotalRows != idx.TotalRows {
		t.Errorf("TotalRows = %d, want %d", got.TotalRows, idx.TotalRows)
	}
}

func TestLoadTruncatedHeaderFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, _, err := Load(path)
	if err == nil {
		t.Error("expected error for truncated header")
	}
}

func TestLoadBadOffsetLengthFails(t *testing.T) {
	idx := &rowindex.Index{TotalRows: 1, Granularity: 1, Offsets: []uint64{0}}
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	if err := Save(path, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Append 3 stray bytes, breaking the "multiple of 8" invariant.
	if err := os.WriteFile(path, append(data, 0, 0, 0), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, _, err = Load(path)
	if err == nil {
		t.Error("expected error for offsets length not a multiple of 8")
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")
	now := time.Now()

	if err := SaveSidecar(path, 12345, now); err != nil {
		t.Fatalf("SaveSidecar: %v", err)
	}

	size, mtime, ok := LoadSidecar(path)
	if !ok {
		t.Fatal("expected sidecar found")
	}
	if size != 12345 {
		t.Errorf("size = %d, want 12345", size)
	}
	if mtime.UnixNano() != now.UnixNano() {
		t.Errorf("mtime = %v, want %v", mtime, now)
	}
}

func TestSidecarMissing(t *testing.T) {
	_, _, ok := LoadSidecar(filepath.Join(t.TempDir(), "index.bin"))
	if ok {
		t.Error("expected ok = false for missing sidecar")
	}
}
