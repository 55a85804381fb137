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

// Package scratch provides aligned scratch buffers for packed GEMM panels.
//
// A Buffer is acquired once per multiplication and released when the call
// returns:
//
//	buf, err := scratch.Acquire[float32](params.PackedASize())
//	if err != nil {
//	    return err
//	}
//	defer buf.Release()
//	packed := buf.Data() // 64-byte aligned
//
// Released memory is recycled through size-classed sync.Pools, so repeated
// multiplications of similar shapes don't allocate.
package scratch

import (
	"math/bits"
	"sync"
	"unsafe"

	"github.com/ajroetker/gemm/matrix"
	"github.com/pkg/errors"
)

// Alignment in bytes of the first element of Buffer.Data.
// It covers the widest SIMD register in use (AVX-512) and a cache line.
const Alignment = 64

// MaxBytes is the largest request Acquire accepts.
var MaxBytes = 1 << 30

// ErrAllocation is returned when a scratch request cannot be satisfied.
var ErrAllocation = errors.New("scratch allocation failed")

// numClasses bounds the power-of-two size classes kept in the pools.
const numClasses = 32

// Buffer is an aligned slice of T owned by one caller until Release.
type Buffer[T matrix.Float] struct {
	raw      []T
	data     []T
	class    int
	owner    *PoolAllocator[T]
	released bool
}

// Data returns the aligned storage. It is nil after Release.
func (b *Buffer[T]) Data() []T {
	return b.data
}

// Len returns the number of usable elements.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Release returns the memory to its allocator. Calling Release more than once
// is safe.
func (b *Buffer[T]) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	if b.owner != nil {
		b.owner.put(b.raw, b.class)
	}
	b.raw, b.data = nil, nil
}

// Allocator is the allocation capability consumed by the GEMM engine.
type Allocator[T matrix.Float] interface {
	// Acquire returns a buffer with n aligned elements.
	Acquire(n int) (*Buffer[T], error)
}

// PoolAllocator recycles buffers through power-of-two size classes.
type PoolAllocator[T matrix.Float] struct {
	pools [numClasses]sync.Pool
}

var (
	float32Allocator = &PoolAllocator[float32]{}
	float64Allocator = &PoolAllocator[float64]{}
)

// DefaultAllocator returns the process-wide allocator for T.
func DefaultAllocator[T matrix.Float]() Allocator[T] {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32Allocator).(Allocator[T])
	case float64:
		return any(float64Allocator).(Allocator[T])
	}
	// Named types derived from float32/float64 get their own unshared pool.
	return &PoolAllocator[T]{}
}

// Acquire returns n aligned elements from the default allocator.
func Acquire[T matrix.Float](n int) (*Buffer[T], error) {
	return DefaultAllocator[T]().Acquire(n)
}

// Acquire implements Allocator.
func (p *PoolAllocator[T]) Acquire(n int) (*Buffer[T], error) {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if n < 0 {
		return nil, errors.Wrapf(ErrAllocation, "negative size %d", n)
	}
	if n > (MaxBytes-Alignment)/elemSize {
		return nil, errors.Wrapf(ErrAllocation, "%d elements of %d bytes exceed the %d bytes limit",
			n, elemSize, MaxBytes)
	}

	// Slack to move the start of the slice to an aligned address.
	slack := Alignment / elemSize
	class := sizeClass(n + slack)
	raw := p.get(class)
	if raw == nil {
		raw = make([]T, 1<<class)
	}

	start := alignOffset(raw, elemSize)
	return &Buffer[T]{
		raw:   raw,
		data:  raw[start : start+n : start+n],
		class: class,
		owner: p,
	}, nil
}

func (p *PoolAllocator[T]) get(class int) []T {
	if class >= numClasses {
		return nil
	}
	if v, ok := p.pools[class].Get().(*[]T); ok {
		return *v
	}
	return nil
}

func (p *PoolAllocator[T]) put(raw []T, class int) {
	if class >= numClasses || raw == nil {
		return
	}
	p.pools[class].Put(&raw)
}

// sizeClass returns the smallest c with 1<<c >= n.
func sizeClass(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// alignOffset returns the index of the first Alignment-aligned element of raw.
func alignOffset[T matrix.Float](raw []T, elemSize int) int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	misalign := int(addr % Alignment)
	if misalign == 0 {
		return 0
	}
	return (Alignment - misalign) / elemSize
}
