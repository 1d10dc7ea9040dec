package viewport

import "testing"

func TestCompute_SpecWorkedExample(t *testing.T) {
	req := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		HorizontalBuffer:   2,
		VerticalBuffer:     5,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   24,
		ScrollLeft:         0,
		ScrollTop:          0,
		MaxRows:            5,
		MaxCols:            2,
	}
	got := Compute(req)

	if got.StartRow != 0 {
		t.Errorf("StartRow = %d, want 0", got.StartRow)
	}
	if got.RowCount != 5 {
		t.Errorf("RowCount = %d, want 5 (clamped from 30 by MaxRows)", got.RowCount)
	}
	if got.StartCol != 0 {
		t.Errorf("StartCol = %d, want 0", got.StartCol)
	}
	if got.ColCount != 2 {
		t.Errorf("ColCount = %d, want 2 (clamped from 14 by MaxCols)", got.ColCount)
	}
}

func TestCompute_ScrollTopAdvancesStartRow(t *testing.T) {
	base := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		HorizontalBuffer:   2,
		VerticalBuffer:     5,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   24,
		MaxRows:            100000,
		MaxCols:            2,
	}

	base.ScrollTop = 24 * 100
	got := Compute(base)
	if got.StartRow != 100 {
		t.Errorf("StartRow = %d, want 100", got.StartRow)
	}
}

func TestCompute_StartRowClampedToMaxRows(t *testing.T) {
	req := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   24,
		ScrollTop:          24 * 1_000_000,
		MaxRows:            10,
		MaxCols:            2,
	}
	got := Compute(req)
	if got.StartRow != 9 {
		t.Errorf("StartRow = %d, want 9 (clamped to MaxRows-1)", got.StartRow)
	}
	if got.RowCount != 1 {
		t.Errorf("RowCount = %d, want 1 (only one row remains from startRow 9)", got.RowCount)
	}
}

func TestCompute_RowCountCappedAtSafetyLimit(t *testing.T) {
	req := Request{
		ScreenWidth:        1000,
		ScreenHeight:       1_000_000,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   1,
		MaxRows:            10_000_000,
		MaxCols:            2,
	}
	got := Compute(req)
	if got.RowCount != MaxRowsPerSlice {
		t.Errorf("RowCount = %d, want %d (safety cap)", got.RowCount, MaxRowsPerSlice)
	}
}

func TestCompute_ColCountCappedAtSafetyLimit(t *testing.T) {
	req := Request{
		ScreenWidth:        1_000_000,
		ScreenHeight:       480,
		DefaultColumnWidth: 1,
		DefaultRowHeight:   24,
		MaxRows:            10,
		MaxCols:            10_000,
	}
	got := Compute(req)
	if got.ColCount != MaxColsPerSlice {
		t.Errorf("ColCount = %d, want %d (safety cap)", got.ColCount, MaxColsPerSlice)
	}
}

func TestCompute_NegativeScrollClampsToZero(t *testing.T) {
	req := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   24,
		ScrollLeft:         -500,
		ScrollTop:          -500,
		MaxRows:            100,
		MaxCols:            10,
	}
	got := Compute(req)
	if got.StartRow != 0 {
		t.Errorf("StartRow = %d, want 0 for negative ScrollTop", got.StartRow)
	}
	if got.StartCol != 0 {
		t.Errorf("StartCol = %d, want 0 for negative ScrollLeft", got.StartCol)
	}
}

func TestCompute_EmptyFileYieldsZeroCounts(t *testing.T) {
	req := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   24,
		MaxRows:            0,
		MaxCols:            0,
	}
	got := Compute(req)
	if got.RowCount != 0 || got.ColCount != 0 {
		t.Errorf("got RowCount=%d ColCount=%d, want 0/0 for empty file", got.RowCount, got.ColCount)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	req := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		HorizontalBuffer:   2,
		VerticalBuffer:     5,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   24,
		ScrollLeft:         340,
		ScrollTop:          912,
		MaxRows:            5000,
		MaxCols:            50,
	}
	a := Compute(req)
	b := Compute(req)
	if a != b {
		t.Errorf("Compute not idempotent: %+v != %+v", a, b)
	}
}

func TestCompute_MonotonicInScrollTop(t *testing.T) {
	base := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		HorizontalBuffer:   2,
		VerticalBuffer:     5,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   24,
		MaxRows:            5000,
		MaxCols:            50,
	}

	prevStartRow := uint64(0)
	for scrollTop := int64(0); scrollTop <= 24*4999; scrollTop += 24 * 17 {
		base.ScrollTop = scrollTop
		got := Compute(base)
		if got.StartRow < prevStartRow {
			t.Fatalf("StartRow decreased at scrollTop=%d: %d < %d", scrollTop, got.StartRow, prevStartRow)
		}
		prevStartRow = got.StartRow
	}
}

func TestCompute_MonotonicInScrollLeft(t *testing.T) {
	base := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		HorizontalBuffer:   2,
		VerticalBuffer:     5,
		DefaultColumnWidth: 100,
		DefaultRowHeight:   24,
		MaxRows:            5000,
		MaxCols:            500,
	}

	prevStartCol := 0
	for scrollLeft := int64(0); scrollLeft <= 100*499; scrollLeft += 100 * 3 {
		base.ScrollLeft = scrollLeft
		got := Compute(base)
		if got.StartCol < prevStartCol {
			t.Fatalf("StartCol decreased at scrollLeft=%d: %d < %d", scrollLeft, got.StartCol, prevStartCol)
		}
		prevStartCol = got.StartCol
	}
}

func TestCompute_ZeroRowHeightDoesNotPanic(t *testing.T) {
	req := Request{
		ScreenWidth:        1000,
		ScreenHeight:       480,
		DefaultColumnWidth: 0,
		DefaultRowHeight:   0,
		MaxRows:            10,
		MaxCols:            10,
	}
	_ = Compute(req)
}
