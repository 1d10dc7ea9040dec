// Package rowindex builds the sparse row index: a single streaming pass
// over a delimited text file that records the byte offset of every
// G-th row, so that any row can be seeked to in O(1).
//
// On the trailing-newline open question (spec.md §9 Q1): a file whose
// final record has no trailing LT still counts as one more row, as
// long as at least one byte was read after the last LT. This keeps
// totalRows consistent with what the Slicer can actually produce.
package rowindex

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// LT is the line-terminator byte separating records.
const LT byte = '\n'

// DefaultChunkSize is the read chunk size used by Build, chosen to
// amortize I/O over a large sequential scan.
const DefaultChunkSize = 64 * 1024 * 1024

// Index is the on-disk-shaped result of a single index build: the total
// row count, the configured granularity, and the anchor offsets.
//
// Index is immutable once returned from Build or Load; concurrent
// readers never need to lock around it.
type Index struct {
	TotalRows   uint64
	Granularity uint64
	Offsets     []uint64
}

// Anchor returns the byte offset to seek to before reading row, and how
// many records to skip past that anchor to reach row itself.
func (idx *Index) Anchor(row uint64) (offset uint64, skip uint64) {
	if idx.Granularity == 0 {
		return 0, row
	}
	k := row / idx.Granularity
	if k >= uint64(len(idx.Offsets)) {
		k = uint64(len(idx.Offsets)) - 1
	}
	return idx.Offsets[k], row - k*idx.Granularity
}

// Builder scans a file once and produces its sparse index.
type Builder interface {
	Build(ctx context.Context, r io.Reader, granularity uint64) (*Index, error)
}

type builder struct {
	chunkSize int
}

// NewBuilder returns the default streaming Builder. chunkSize <= 0
// selects DefaultChunkSize.
func NewBuilder(chunkSize int) Builder {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &builder{chunkSize: chunkSize}
}

// Build performs the single-pass scan described in spec.md §4.1.
//
// globalOffset tracks bytes consumed so far, sinceLast counts LTs seen
// since the last anchor was emitted. An anchor is emitted immediately
// after the G-th LT in every run, regardless of which chunk it falls
// in — chunk boundaries never change the result.
func (b *builder) Build(ctx context.Context, r io.Reader, granularity uint64) (*Index, error) {
	if granularity == 0 {
		granularity = 1
	}

	idx := &Index{
		Granularity: granularity,
		Offsets:     []uint64{0},
	}

	var globalOffset uint64
	var sinceLast uint64
	var sawByteSinceLastLT bool

	chunk := make([]byte, b.chunkSize)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, err := r.Read(chunk)
		if n > 0 {
			buf := chunk[:n]
			pos := 0
			for {
				i := bytes.IndexByte(buf[pos:], LT)
				if i < 0 {
					if len(buf[pos:]) > 0 {
						sawByteSinceLastLT = true
					}
					break
				}
				idx.TotalRows++
				sinceLast++
				sawByteSinceLastLT = false
				if sinceLast == granularity {
					idx.Offsets = append(idx.Offsets, globalOffset+uint64(pos+i+1))
					sinceLast = 0
				}
				pos += i + 1
			}
			globalOffset += uint64(n)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rowindex: scanning file: %w", err)
		}
	}

	// Open Question 1: a final record with no trailing LT still counts.
	if sawByteSinceLastLT {
		idx.TotalRows++
	}

	// Drop a trailing anchor that would point exactly at fileSize — it
	// addresses no row.
	if last := idx.Offsets[len(idx.Offsets)-1]; last == globalOffset && len(idx.Offsets) > 1 {
		idx.Offsets = idx.Offsets[:len(idx.Offsets)-1]
	}

	return idx, nil
}
