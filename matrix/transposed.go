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

package matrix

// Transposed addressing: (row, col) -> offset + col*stride + row.

func (l layout) transposedIndex(row, col int) int { return l.offset + col*l.stride + row }

// Transposed is a read-only view whose logical rows are physical columns.
type Transposed[T Float] struct {
	layout
	data []T
}

func (m Transposed[T]) Index(row, col int) int { return m.transposedIndex(row, col) }

func (m Transposed[T]) RowIndex(row int) int { return m.offset + row }

func (m Transposed[T]) ColIndex(col int) int { return m.offset + col*m.stride }

func (m Transposed[T]) Steps() (rowStep, colStep int) { return 1, m.stride }

func (m Transposed[T]) IsTransposed() bool { return true }

func (m Transposed[T]) Data() []T { return m.data }

func (m Transposed[T]) At(row, col int) T {
	return m.data[m.offset+col*m.stride+row]
}

func (m Transposed[T]) Sub(row, col int) View[T] {
	return Transposed[T]{layout: m.shifted(m.Index(row, col)), data: m.data}
}

func (m Transposed[T]) SubRow(row int) View[T] {
	return Transposed[T]{layout: m.shifted(m.RowIndex(row)), data: m.data}
}

func (m Transposed[T]) SubCol(col int) View[T] {
	return Transposed[T]{layout: m.shifted(m.ColIndex(col)), data: m.data}
}

// MutTransposed is a read-write view whose logical rows are physical columns.
type MutTransposed[T Float] struct {
	layout
	data []T
}

func (m MutTransposed[T]) Index(row, col int) int { return m.transposedIndex(row, col) }

func (m MutTransposed[T]) RowIndex(row int) int { return m.offset + row }

func (m MutTransposed[T]) ColIndex(col int) int { return m.offset + col*m.stride }

func (m MutTransposed[T]) Steps() (rowStep, colStep int) { return 1, m.stride }

func (m MutTransposed[T]) IsTransposed() bool { return true }

func (m MutTransposed[T]) Data() []T { return m.data }

func (m MutTransposed[T]) At(row, col int) T {
	return m.data[m.offset+col*m.stride+row]
}

func (m MutTransposed[T]) Set(row, col int, value T) {
	m.data[m.offset+col*m.stride+row] = value
}

func (m MutTransposed[T]) Sub(row, col int) Mutable[T] {
	return MutTransposed[T]{layout: m.shifted(m.Index(row, col)), data: m.data}
}

func (m MutTransposed[T]) SubRow(row int) Mutable[T] {
	return MutTransposed[T]{layout: m.shifted(m.RowIndex(row)), data: m.data}
}

func (m MutTransposed[T]) SubCol(col int) Mutable[T] {
	return MutTransposed[T]{layout: m.shifted(m.ColIndex(col)), data: m.data}
}

func (m MutTransposed[T]) ReadOnly() View[T] {
	return Transposed[T]{layout: m.layout, data: m.data}
}
