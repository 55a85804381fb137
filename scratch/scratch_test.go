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

package scratch

import (
	"testing"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isAligned[T float32 | float64](data []T) bool {
	return uintptr(unsafe.Pointer(unsafe.SliceData(data)))%Alignment == 0
}

func TestAcquireAligned(t *testing.T) {
	for _, n := range []int{1, 3, 16, 100, 4096, 128*256 + 7} {
		buf32, err := Acquire[float32](n)
		require.NoError(t, err)
		assert.Equal(t, n, buf32.Len())
		assert.True(t, isAligned(buf32.Data()), "float32 buffer of %d elements not aligned", n)

		buf64, err := Acquire[float64](n)
		require.NoError(t, err)
		assert.Equal(t, n, buf64.Len())
		assert.True(t, isAligned(buf64.Data()), "float64 buffer of %d elements not aligned", n)

		// The whole usable range is writable.
		data := buf32.Data()
		for i := range data {
			data[i] = float32(i)
		}
		buf32.Release()
		buf64.Release()
	}
}

func TestReleaseIdempotent(t *testing.T) {
	buf, err := Acquire[float64](64)
	require.NoError(t, err)
	buf.Release()
	assert.Nil(t, buf.Data())
	assert.NotPanics(t, buf.Release)

	var nilBuf *Buffer[float32]
	assert.NotPanics(t, nilBuf.Release)
}

func TestRecycledBuffersStayAligned(t *testing.T) {
	alloc := &PoolAllocator[float32]{}
	for range 10 {
		buf, err := alloc.Acquire(1000)
		require.NoError(t, err)
		require.True(t, isAligned(buf.Data()))
		buf.Release()
	}
}

func TestAcquireErrors(t *testing.T) {
	_, err := Acquire[float32](-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllocation))

	_, err = Acquire[float64](MaxBytes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllocation))
}

func TestZeroSize(t *testing.T) {
	buf, err := Acquire[float32](0)
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len())
	buf.Release()
}

func TestSizeClass(t *testing.T) {
	assert.Equal(t, 0, sizeClass(0))
	assert.Equal(t, 0, sizeClass(1))
	assert.Equal(t, 1, sizeClass(2))
	assert.Equal(t, 2, sizeClass(3))
	assert.Equal(t, 10, sizeClass(1024))
	assert.Equal(t, 11, sizeClass(1025))
}
