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

// Natural addressing: (row, col) -> offset + row*stride + col.

func (l layout) naturalIndex(row, col int) int { return l.offset + row*l.stride + col }

// shifted returns the layout moved to a new origin with the same stride.
func (l layout) shifted(index int) layout { return layout{offset: index, stride: l.stride} }

// Dense is a read-only view in natural (row-major) orientation.
type Dense[T Float] struct {
	layout
	data []T
}

func (m Dense[T]) Index(row, col int) int { return m.naturalIndex(row, col) }

func (m Dense[T]) RowIndex(row int) int { return m.offset + row*m.stride }

func (m Dense[T]) ColIndex(col int) int { return m.offset + col }

func (m Dense[T]) Steps() (rowStep, colStep int) { return m.stride, 1 }

func (m Dense[T]) IsTransposed() bool { return false }

func (m Dense[T]) Data() []T { return m.data }

func (m Dense[T]) At(row, col int) T {
	return m.data[m.offset+row*m.stride+col]
}

func (m Dense[T]) Sub(row, col int) View[T] {
	return Dense[T]{layout: m.shifted(m.Index(row, col)), data: m.data}
}

func (m Dense[T]) SubRow(row int) View[T] {
	return Dense[T]{layout: m.shifted(m.RowIndex(row)), data: m.data}
}

func (m Dense[T]) SubCol(col int) View[T] {
	return Dense[T]{layout: m.shifted(m.ColIndex(col)), data: m.data}
}

// MutDense is a read-write view in natural (row-major) orientation.
type MutDense[T Float] struct {
	layout
	data []T
}

func (m MutDense[T]) Index(row, col int) int { return m.naturalIndex(row, col) }

func (m MutDense[T]) RowIndex(row int) int { return m.offset + row*m.stride }

func (m MutDense[T]) ColIndex(col int) int { return m.offset + col }

func (m MutDense[T]) Steps() (rowStep, colStep int) { return m.stride, 1 }

func (m MutDense[T]) IsTransposed() bool { return false }

func (m MutDense[T]) Data() []T { return m.data }

func (m MutDense[T]) At(row, col int) T {
	return m.data[m.offset+row*m.stride+col]
}

func (m MutDense[T]) Set(row, col int, value T) {
	m.data[m.offset+row*m.stride+col] = value
}

func (m MutDense[T]) Sub(row, col int) Mutable[T] {
	return MutDense[T]{layout: m.shifted(m.Index(row, col)), data: m.data}
}

func (m MutDense[T]) SubRow(row int) Mutable[T] {
	return MutDense[T]{layout: m.shifted(m.RowIndex(row)), data: m.data}
}

func (m MutDense[T]) SubCol(col int) Mutable[T] {
	return MutDense[T]{layout: m.shifted(m.ColIndex(col)), data: m.data}
}

func (m MutDense[T]) ReadOnly() View[T] {
	return Dense[T]{layout: m.layout, data: m.data}
}
