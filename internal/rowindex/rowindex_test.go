package rowindex

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

const seedData = "Hamburg;12.0\nBulawayo;8.9\nPalembang;38.8\nSt. John's;15.2\nCracow;12.6"

// referenceOffsets computes the anchor offsets the slow, obviously-correct
// way, for comparison against Build's streaming result.
func referenceOffsets(data string, granularity uint64) (totalRows uint64, offsets []uint64) {
	offsets = []uint64{0}
	var sinceLast uint64
	var off uint64
	lastByteWasLT := true
	for i := 0; i < len(data); i++ {
		lastByteWasLT = data[i] == LT
		if data[i] == LT {
			totalRows++
			sinceLast++
			if sinceLast == granularity {
				offsets = append(offsets, uint64(i+1))
				sinceLast = 0
			}
		}
	}
	if len(data) > 0 && !lastByteWasLT {
		totalRows++
	}
	off = uint64(len(data))
	if last := offsets[len(offsets)-1]; last == off && len(offsets) > 1 {
		offsets = offsets[:len(offsets)-1]
	}
	return totalRows, offsets
}

func TestBuild_SeedData(t *testing.T) {
	wantRows, wantOffsets := referenceOffsets(seedData, 2)

	idx, err := NewBuilder(0).Build(context.Background(), strings.NewReader(seedData), 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.TotalRows != wantRows {
		t.Errorf("TotalRows = %d, want %d", idx.TotalRows, wantRows)
	}
	if idx.TotalRows != 5 {
		t.Errorf("TotalRows = %d, want 5 (5 semicolon-delimited records)", idx.TotalRows)
	}
	if len(idx.Offsets) != len(wantOffsets) {
		t.Fatalf("Offsets = %v, want %v", idx.Offsets, wantOffsets)
	}
	for i := range wantOffsets {
		if idx.Offsets[i] != wantOffsets[i] {
			t.Errorf("Offsets[%d] = %d, want %d", i, idx.Offsets[i], wantOffsets[i])
		}
	}
}

func TestBuild_ChunkBoundaryIndependent(t *testing.T) {
	want, err := NewBuilder(DefaultChunkSize).Build(context.Background(), strings.NewReader(seedData), 2)
	if err != nil {
		t.Fatalf("Build (large chunk): %v", err)
	}

	// A 1-byte chunk size forces every possible LT-at-chunk-boundary case.
	for _, chunkSize := range []int{1, 2, 3, 7} {
		got, err := NewBuilder(chunkSize).Build(context.Background(), strings.NewReader(seedData), 2)
		if err != nil {
			t.Fatalf("Build (chunk=%d): %v", chunkSize, err)
		}
		if got.TotalRows != want.TotalRows {
			t.Errorf("chunk=%d: TotalRows = %d, want %d", chunkSize, got.TotalRows, want.TotalRows)
		}
		if !bytes64Equal(got.Offsets, want.Offsets) {
			t.Errorf("chunk=%d: Offsets = %v, want %v", chunkSize, got.Offsets, want.Offsets)
		}
	}
}

func bytes64Equal(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuild_MissingTrailingNewline(t *testing.T) {
	idx, err := NewBuilder(0).Build(context.Background(), strings.NewReader("a;1\nb;2"), 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2 (undercount fix for missing trailing LT)", idx.TotalRows)
	}
}

func TestBuild_TrailingNewlinePresent(t *testing.T) {
	idx, err := NewBuilder(0).Build(context.Background(), strings.NewReader("a;1\nb;2\n"), 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", idx.TotalRows)
	}
}

func TestBuild_EmptyFile(t *testing.T) {
	idx, err := NewBuilder(0).Build(context.Background(), strings.NewReader(""), 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.TotalRows != 0 {
		t.Errorf("TotalRows = %d, want 0", idx.TotalRows)
	}
	if len(idx.Offsets) != 1 || idx.Offsets[0] != 0 {
		t.Errorf("Offsets = %v, want [0]", idx.Offsets)
	}
}

func TestBuild_EmptyLinesCounted(t *testing.T) {
	// Open Question 2: empty lines are counted everywhere, not skipped.
	idx, err := NewBuilder(0).Build(context.Background(), strings.NewReader("a;1\n\nb;2\n"), 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3 (blank line counted as a row)", idx.TotalRows)
	}
}

func TestAnchor(t *testing.T) {
	idx := &Index{TotalRows: 5, Granularity: 2, Offsets: []uint64{0, 26, 57}}
	cases := []struct {
		row        uint64
		wantOff    uint64
		wantSkip   uint64
		wantString string
	}{
		{0, 0, 0, "row 0 at anchor 0"},
		{1, 0, 1, "row 1 skips 1 past anchor 0"},
		{2, 26, 0, "row 2 at anchor 26"},
		{4, 57, 0, "row 4 at anchor 57"},
	}
	for _, c := range cases {
		off, skip := idx.Anchor(c.row)
		if off != c.wantOff || skip != c.wantSkip {
			t.Errorf("%s: Anchor(%d) = (%d, %d), want (%d, %d)", c.wantString, c.row, off, skip, c.wantOff, c.wantSkip)
		}
	}
}

func TestBuild_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(0).Build(ctx, bytes.NewReader([]byte("a;1\n")), 1)
	if err == nil {
		t.Error("expected context cancellation error")
	}
}
