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

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence returns [0, 1, ..., n-1].
func sequence(n int) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return data
}

func TestDenseAddressing(t *testing.T) {
	// 3x4 logical matrix embedded with stride 5.
	data := sequence(15)
	v := New(data, 5, false)

	assert.False(t, v.IsTransposed())
	assert.Equal(t, 5, v.Stride())
	assert.Equal(t, float32(0), v.At(0, 0))
	assert.Equal(t, float32(7), v.At(1, 2))
	assert.Equal(t, 7, v.Index(1, 2))
	assert.Equal(t, 10, v.RowIndex(2))
	assert.Equal(t, 3, v.ColIndex(3))
	rowStep, colStep := v.Steps()
	assert.Equal(t, 5, rowStep)
	assert.Equal(t, 1, colStep)

	sub := v.Sub(1, 1)
	assert.Equal(t, 6, sub.Offset())
	assert.Equal(t, v.At(2, 3), sub.At(1, 2))
	assert.Equal(t, v.At(2, 0), v.SubRow(2).At(0, 0))
	assert.Equal(t, v.At(1, 3), v.SubCol(3).At(1, 0))
}

func TestTransposedAddressing(t *testing.T) {
	// Buffer holds a 4x3 matrix (stride 3); the view reads it as its 3x4 transpose.
	data := sequence(12)
	v := New(data, 3, true)

	assert.True(t, v.IsTransposed())
	for row := range 3 {
		for col := range 4 {
			assert.Equal(t, data[col*3+row], v.At(row, col), "At(%d, %d)", row, col)
			assert.Equal(t, col*3+row, v.Index(row, col))
		}
	}
	assert.Equal(t, 2, v.RowIndex(2))
	assert.Equal(t, 9, v.ColIndex(3))
	rowStep, colStep := v.Steps()
	assert.Equal(t, 1, rowStep)
	assert.Equal(t, 3, colStep)

	sub := v.Sub(1, 2)
	assert.True(t, sub.IsTransposed())
	assert.Equal(t, v.At(2, 3), sub.At(1, 1))
	assert.Equal(t, v.At(2, 1), v.SubRow(2).At(0, 1))
	assert.Equal(t, v.At(1, 3), v.SubCol(3).At(1, 0))
}

func TestMutableVariants(t *testing.T) {
	for _, transposed := range []bool{false, true} {
		data := make([]float64, 25)
		m := NewMutable(data, 5, transposed)
		assert.Equal(t, transposed, m.IsTransposed())

		m.Sub(1, 2).Set(1, 1, 42)
		assert.Equal(t, float64(42), m.At(2, 3))
		assert.Equal(t, float64(42), data[m.Index(2, 3)])
		assert.Equal(t, float64(42), m.ReadOnly().At(2, 3))

		m.SubRow(3).Set(0, 1, 7)
		assert.Equal(t, float64(7), m.At(3, 1))
		m.SubCol(4).Set(2, 0, 9)
		assert.Equal(t, float64(9), m.At(2, 4))
	}
}

func TestSubViewsShareBuffer(t *testing.T) {
	data := make([]float32, 16)
	m := NewMutable(data, 4, false)
	sub := m.Sub(2, 2)
	sub.Set(0, 0, 1)
	sub.Set(1, 1, 2)
	require.Equal(t, float32(1), data[10])
	require.Equal(t, float32(2), data[15])
	assert.Equal(t, len(data), len(sub.Data()))
}

func TestMinLen(t *testing.T) {
	assert.Equal(t, 0, MinLen(0, 4, 4, false))
	assert.Equal(t, 0, MinLen(3, 0, 4, true))
	// 3x4 natural, ld=6: two full rows plus 4.
	assert.Equal(t, 16, MinLen(3, 4, 6, false))
	// 3x4 transposed, ld=5: stored as 4 rows of 5, last one needs 3.
	assert.Equal(t, 18, MinLen(3, 4, 5, true))

	assert.Equal(t, 4, StoredWidth(3, 4, false))
	assert.Equal(t, 3, StoredWidth(3, 4, true))
}

func TestMaxStride(t *testing.T) {
	// A single stored row never multiplies the stride.
	assert.Equal(t, math.MaxInt, MaxStride(1, 4, false))
	assert.Equal(t, math.MaxInt, MaxStride(4, 1, true))

	for _, transposed := range []bool{false, true} {
		maxLD := MaxStride(3, 2, transposed)
		assert.Positive(t, MinLen(3, 2, maxLD, transposed))
		// One past the bound wraps around.
		assert.Negative(t, MinLen(3, 2, maxLD+1, transposed), "transposed=%v", transposed)
	}
	assert.Less(t, MaxStride(3, 2, false), math.MaxInt/2+1)
}
