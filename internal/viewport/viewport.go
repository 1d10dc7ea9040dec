// Package viewport is a pure function mapping a client's pixel
// viewport to a canonical row/column slice request, per spec.md §4.4.
//
// Grounded on original_source/backend/src/main.rs's make_slice_response
// (div_ceil + saturating arithmetic), translated into Go's clamp/min
// idiom rather than Rust's saturating_sub.
package viewport

import "gridview/internal/slicer"

// MaxRowsPerSlice and MaxColsPerSlice are the hard safety caps from
// spec.md §4.4, independent of any viewport math.
const MaxRowsPerSlice = 1000
const MaxColsPerSlice = 200

// Request describes a client's visible pixel window and the server-side
// bounds it must respect.
type Request struct {
	ScreenWidth        int
	ScreenHeight       int
	DefaultColumnWidth int
	DefaultRowHeight   int
	ScrollLeft         int64
	ScrollTop          int64
	HorizontalBuffer   int
	VerticalBuffer     int
	MaxRows            int64
	MaxCols            int
}

// Compute canonicalizes a viewport into slicer.Params. Idempotent under
// unchanged inputs and monotonic in ScrollTop (increasing ScrollTop
// never decreases the resulting StartRow).
func Compute(r Request) slicer.Params {
	rowHeight := r.DefaultRowHeight
	if rowHeight <= 0 {
		rowHeight = 1
	}
	colWidth := r.DefaultColumnWidth
	if colWidth <= 0 {
		colWidth = 1
	}

	startRow := r.ScrollTop / int64(rowHeight)
	startRow = clampI64(startRow, 0, maxI64(r.MaxRows-1, 0))

	visibleRows := ceilDiv(r.ScreenHeight, rowHeight)
	rowCount := visibleRows + 2*r.VerticalBuffer
	if remaining := r.MaxRows - startRow; int64(rowCount) > remaining {
		rowCount = int(remaining)
	}
	if rowCount > MaxRowsPerSlice {
		rowCount = MaxRowsPerSlice
	}
	if rowCount < 0 {
		rowCount = 0
	}

	startCol := int(r.ScrollLeft / int64(colWidth))
	startCol = clampInt(startCol, 0, maxInt(r.MaxCols-1, 0))

	visibleCols := ceilDiv(r.ScreenWidth, colWidth)
	colCount := visibleCols + 2*r.HorizontalBuffer
	if remaining := r.MaxCols - startCol; colCount > remaining {
		colCount = remaining
	}
	if colCount > MaxColsPerSlice {
		colCount = MaxColsPerSlice
	}
	if colCount < 0 {
		colCount = 0
	}

	return slicer.Params{
		StartRow: uint64(startRow),
		RowCount: rowCount,
		StartCol: startCol,
		ColCount: colCount,
	}
}

// ceilDiv returns ⌈a/b⌉ for positive b.
func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func clampI64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
