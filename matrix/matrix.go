// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package matrix provides zero-copy strided views over caller-owned slices.
//
// A view addresses a logical matrix embedded in a flat row-major buffer with a
// fixed leading dimension (stride). The transposed variants swap the roles of
// rows and columns, so a buffer holding B (K x N) can be consumed as Bᵗ
// (N x K) without copying:
//
//	natural:    (row, col) -> offset + row*stride + col
//	transposed: (row, col) -> offset + col*stride + row
//
// Views never own memory and never outlive the buffer they reference. They do
// not bounds-check logical extents: callers derive sub-views only inside the
// region validated with MinLen. Go's slice bounds checks remain the last line
// of defense.
//
// There are four variants: {Dense, Transposed} for reading and
// {MutDense, MutTransposed} for reading and writing. Code that consumes views
// is written once against View or Mutable.
package matrix

import "math"

// Float is the element constraint of every view: the native float32 and
// float64 types and types derived from them.
//
// Half-precision types are excluded: their Go representation is an integer
// bit pattern, so arithmetic on them would be wrong.
type Float interface {
	~float32 | ~float64
}

// Addresser is the addressing part shared by every view variant.
type Addresser interface {
	// Index returns the offset of element (row, col) in Data().
	Index(row, col int) int

	// RowIndex returns the offset of element (row, 0) in Data().
	RowIndex(row int) int

	// ColIndex returns the offset of element (0, col) in Data().
	ColIndex(col int) int

	// Steps returns the distance in Data() between logically adjacent rows and
	// logically adjacent columns.
	Steps() (rowStep, colStep int)

	// Offset returns the offset of element (0, 0) in Data().
	Offset() int

	// Stride returns the leading dimension of the underlying buffer.
	Stride() int

	// IsTransposed reports whether logical rows map to physical columns.
	IsTransposed() bool
}

// View is a read-only matrix view.
type View[T Float] interface {
	Addresser

	// Data returns the whole underlying buffer, not just the viewed region.
	Data() []T

	// At returns element (row, col).
	At(row, col int) T

	// Sub returns a view whose origin is (row, col).
	Sub(row, col int) View[T]

	// SubRow returns a view whose origin is (row, 0).
	SubRow(row int) View[T]

	// SubCol returns a view whose origin is (0, col).
	SubCol(col int) View[T]
}

// Mutable is a read-write matrix view.
type Mutable[T Float] interface {
	Addresser

	Data() []T
	At(row, col int) T

	// Set writes element (row, col).
	Set(row, col int, value T)

	Sub(row, col int) Mutable[T]
	SubRow(row int) Mutable[T]
	SubCol(col int) Mutable[T]

	// ReadOnly returns the same region as a View.
	ReadOnly() View[T]
}

// New returns a read-only view over data with leading dimension stride.
func New[T Float](data []T, stride int, transposed bool) View[T] {
	if transposed {
		return Transposed[T]{layout: layout{stride: stride}, data: data}
	}
	return Dense[T]{layout: layout{stride: stride}, data: data}
}

// NewMutable returns a read-write view over data with leading dimension stride.
func NewMutable[T Float](data []T, stride int, transposed bool) Mutable[T] {
	if transposed {
		return MutTransposed[T]{layout: layout{stride: stride}, data: data}
	}
	return MutDense[T]{layout: layout{stride: stride}, data: data}
}

// MinLen returns the minimum buffer length holding a logical rows x cols
// matrix with leading dimension ld.
//
// A natural view stores rows rows of ld elements (the last one only needs
// cols). A transposed view stores cols rows of ld elements (the last one only
// needs rows). Empty extents need no storage.
func MinLen(rows, cols, ld int, transposed bool) int {
	if rows <= 0 || cols <= 0 {
		return 0
	}
	if transposed {
		return (cols-1)*ld + rows
	}
	return (rows-1)*ld + cols
}

// MaxStride returns the largest leading dimension for which MinLen of a
// rows x cols matrix fits in an int. Larger strides can't address any real
// buffer.
func MaxStride(rows, cols int, transposed bool) int {
	if transposed {
		rows, cols = cols, rows
	}
	if rows <= 1 || cols <= 0 {
		return math.MaxInt
	}
	return (math.MaxInt - cols) / (rows - 1)
}

// StoredWidth returns the number of elements of a stored row of a logical
// rows x cols matrix, the lower bound for its leading dimension.
func StoredWidth(rows, cols int, transposed bool) int {
	if transposed {
		return rows
	}
	return cols
}

// layout holds the offset and stride shared by all variants.
type layout struct {
	offset int
	stride int
}

func (l layout) Offset() int { return l.offset }
func (l layout) Stride() int { return l.stride }
