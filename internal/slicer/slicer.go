// Package slicer answers "give me rows [startRow, startRow+rowCount) x
// columns [startCol, startCol+colCount)" against the data file, using
// the sparse rowindex to avoid a linear scan from row 0.
//
// Grounded on the teacher's read.Handler (memtable-first, then
// on-disk-segment lookup via an injected reader) for the "locate, then
// read through an injected interface" shape, and on sstable/reader's
// thin-interface style for Slicer itself.
package slicer

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"gridview/internal/datafile"
	"gridview/internal/rowindex"
	"gridview/pkg/collabel"
)

// ReadBufferSize is the minimum initial chunk read, per spec.md §4.3.
const ReadBufferSize = 32 * 1024

// avgRecordBytesLow and avgRecordBytesHigh are the tuning constants
// from spec.md §4.3 — not contracts, just a starting guess for how
// large a chunk needs to be to cover rowCount records.
const avgRecordBytesLow = 30
const avgRecordBytesHigh = 50

// FS is the field separator byte.
const FS = ';'

// Params is a canonicalized slice request, as produced by
// internal/viewport.
type Params struct {
	StartRow uint64
	RowCount int
	StartCol int
	ColCount int
}

// Response is the rectangular cell region described by spec.md §3.
type Response struct {
	StartRow   uint64
	RowCount   int
	StartCol   int
	ColCount   int
	ColLetters []string
	CellsByRow [][]string
}

// Slicer produces Responses against a fixed data file and index.
type Slicer interface {
	GetSlice(ctx context.Context, p Params) (*Response, error)
}

// Source supplies the file handle and index a Slicer reads through.
// Implementations (catalog.Entry) may swap both out from under a
// running Slicer — e.g. on an index rebuild — so Source is consulted
// fresh on every GetSlice call rather than captured once at
// construction.
type Source interface {
	File() datafile.Handle
	Index() *rowindex.Index
}

type slicer struct {
	src Source
}

// New returns a Slicer reading src's file through src's index, re-read
// on every call. Safe for concurrent use on disjoint or overlapping
// ranges: the file is read via io.ReaderAt (no shared cursor) and the
// index is never mutated in place.
func New(src Source) Slicer {
	return &slicer{src: src}
}

func (s *slicer) GetSlice(ctx context.Context, p Params) (*Response, error) {
	file := s.src.File()
	index := s.src.Index()

	totalRows := int64(index.TotalRows)

	startRow := clampI64(int64(p.StartRow), 0, totalRows-1)
	rowCount := p.RowCount
	if remaining := totalRows - startRow; int64(rowCount) > remaining {
		rowCount = int(remaining)
	}
	if p.StartRow >= uint64(totalRows) {
		// A startRow past the last row yields an empty response whose
		// StartRow is clamped to the last row.
		rowCount = 0
	}
	startCol := clampInt(p.StartCol, 0, 1) // N_COLS=2: splitOnFirstFS yields two fields
	colCount := p.ColCount
	if remaining := 2 - startCol; colCount > remaining {
		colCount = remaining
	}

	colLetters := collabel.Range(startCol, colCount)

	if rowCount <= 0 || totalRows == 0 {
		return &Response{
			StartRow:   uint64(startRow),
			RowCount:   0,
			StartCol:   startCol,
			ColCount:   colCount,
			ColLetters: colLetters,
			CellsByRow: [][]string{},
		}, nil
	}

	anchor, skip := index.Anchor(uint64(startRow))
	fileSize, _, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("slicer: stat: %w", err)
	}
	maxLen := fileSize - int64(anchor)
	if maxLen < 0 {
		maxLen = 0
	}

	length := int64(ReadBufferSize)
	if want := avgRecordBytesLow * (int64(skip) + int64(rowCount)); want > length {
		length = want
	}
	if length > maxLen {
		length = maxLen
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		chunk := make([]byte, length)
		n, err := file.ReadAt(chunk, int64(anchor))
		if err != nil && n == 0 {
			return nil, fmt.Errorf("slicer: reading at offset %d: %w", anchor, err)
		}
		chunk = chunk[:n]

		rows, tentative := parseRows(chunk, skip, rowCount, startCol, colCount)
		atFileEnd := int64(anchor)+length >= fileSize

		if len(rows) < rowCount && tentative != nil && atFileEnd {
			// The chunk ran out mid-record, but it ran out because the
			// file itself ends there (no trailing LT) — this is the
			// final row, not an under-read.
			rows = append(rows, tentative)
		}

		yielded := len(rows)
		if yielded >= rowCount || atFileEnd || startRow+int64(yielded) >= totalRows {
			return &Response{
				StartRow:   uint64(startRow),
				RowCount:   yielded,
				StartCol:   startCol,
				ColCount:   colCount,
				ColLetters: colLetters,
				CellsByRow: rows,
			}, nil
		}

		// Under-read: grow the buffer and retry from the same anchor.
		newLength := length + avgRecordBytesHigh*int64(rowCount-yielded)
		if newLength > maxLen {
			newLength = maxLen
		}
		if newLength <= length {
			return &Response{
				StartRow:   uint64(startRow),
				RowCount:   yielded,
				StartCol:   startCol,
				ColCount:   colCount,
				ColLetters: colLetters,
				CellsByRow: rows,
			}, nil
		}
		length = newLength
	}
}

// parseRows walks chunk starting at byte 0, skips `skip` records, then
// collects up to rowCount records split on FS and projected onto
// [startCol, startCol+colCount). If the chunk ends mid-record before
// rowCount rows are collected, the trailing partial bytes are returned
// separately as tentative — the caller accepts it only if the chunk
// actually reached end-of-file; otherwise it's an under-read that
// needs a bigger buffer.
//
// Per spec.md §9 Open Question 2 (decided in SPEC_FULL.md): blank
// lines are counted as ordinary (empty) rows here, not skipped — this
// keeps the row count consistent with rowindex.Build, which counts
// every LT.
func parseRows(chunk []byte, skip uint64, rowCount, startCol, colCount int) (rows [][]string, tentative []string) {
	pos := 0
	for i := uint64(0); i < skip; i++ {
		nl := bytes.IndexByte(chunk[pos:], '\n')
		if nl < 0 {
			return rows, nil
		}
		pos += nl + 1
	}

	rows = make([][]string, 0, rowCount)
	for len(rows) < rowCount {
		nl := bytes.IndexByte(chunk[pos:], '\n')
		if nl < 0 {
			if pos >= len(chunk) {
				return rows, nil
			}
			return rows, projectColumns(chunk[pos:], startCol, colCount)
		}
		record := chunk[pos : pos+nl]
		rows = append(rows, projectColumns(record, startCol, colCount))
		pos += nl + 1
	}
	return rows, nil
}

func projectColumns(record []byte, startCol, colCount int) []string {
	fields := splitOnFirstFS(record)

	out := make([]string, colCount)
	for i := 0; i < colCount; i++ {
		col := startCol + i
		if col < len(fields) {
			out[i] = decodeUTF8(fields[col])
		} else {
			out[i] = ""
		}
	}
	return out
}

// splitOnFirstFS splits record into at most two fields on the first FS
// byte, per spec.md §4.3. If FS is absent, the whole record is field 0
// and field 1 is empty.
func splitOnFirstFS(record []byte) [][]byte {
	i := bytes.IndexByte(record, FS)
	if i < 0 {
		return [][]byte{record, nil}
	}
	return [][]byte{record[:i], record[i+1:]}
}

func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	// Malformed sequences become U+FFFD rather than failing the request.
	var out []rune
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}

func clampI64(v, lo, hi int64) int64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
