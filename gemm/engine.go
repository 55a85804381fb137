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

// Package gemm implements dense general matrix multiplication,
//
//	C ← α·op(A)·op(B) + β·C
//
// for float32 and float64, with a GotoBLAS-style blocked engine: a cache
// blocking loop nest, panel packing into scratch buffers and pluggable
// microkernel strategies (package kernel), driven by a pluggable parallel
// executor (package executor).
//
// All matrices are row-major. A logical R×C operand with leading dimension
// ld stores element (r, c) at r*ld + c, or at c*ld + r when its transpose
// flag is set (the buffer then holds the C×R transpose).
//
// Usage:
//
//	exec := executor.NewFixedPool(runtime.GOMAXPROCS(0))
//	defer exec.Close()
//
//	// C (m×n) = A (m×k) · B (k×n)
//	err := gemm.Sgemm(exec, false, false, false, m, n, k, 1, a, k, b, n, 0, c, n)
package gemm

import (
	"sync"

	"github.com/ajroetker/gemm/executor"
	"github.com/ajroetker/gemm/kernel"
	"github.com/ajroetker/gemm/matrix"
	"github.com/ajroetker/gemm/scratch"
	"github.com/pkg/errors"
)

// Engine binds a microkernel strategy and a scratch allocator. It holds no
// per-call state, so one Engine can serve concurrent Multiply calls as long
// as each call uses its own executor.
type Engine[T matrix.Float] struct {
	strategy kernel.Strategy[T]
	alloc    scratch.Allocator[T]
}

// Option configures an Engine.
type Option[T matrix.Float] func(*Engine[T])

// WithStrategy makes the engine use s instead of kernel.Best.
func WithStrategy[T matrix.Float](s kernel.Strategy[T]) Option[T] {
	return func(e *Engine[T]) {
		e.strategy = s
	}
}

// WithAllocator makes the engine acquire its packing buffers from alloc.
func WithAllocator[T matrix.Float](alloc scratch.Allocator[T]) Option[T] {
	return func(e *Engine[T]) {
		e.alloc = alloc
	}
}

// New returns an Engine. Without options it uses kernel.Best and the default
// scratch allocator.
//
// The strategy's parameters are validated here, so a Multiply never
// discovers an unusable kernel mid-computation.
func New[T matrix.Float](opts ...Option[T]) (*Engine[T], error) {
	e := &Engine[T]{}
	for _, opt := range opts {
		opt(e)
	}
	if e.strategy == nil {
		s, err := kernel.Best[T]()
		if err != nil {
			return nil, errors.WithMessage(err, "selecting gemm kernel")
		}
		e.strategy = s
	}
	if err := e.strategy.Params().Validate(); err != nil {
		return nil, errors.WithMessagef(err, "gemm kernel %q", e.strategy.Name())
	}
	if e.alloc == nil {
		e.alloc = scratch.DefaultAllocator[T]()
	}
	return e, nil
}

// Strategy returns the microkernel strategy of the engine.
func (e *Engine[T]) Strategy() kernel.Strategy[T] {
	return e.strategy
}

// Multiply computes C ← alpha·op(A)·op(B) + beta·C, where op(A) is m×k,
// op(B) is k×n and C is m×n.
//
// transA, transB and transC select the transposed addressing of each buffer,
// and lda, ldb and ldc are their leading dimensions. When beta is zero C is
// only written, so it may hold garbage (including NaNs) on entry.
//
// The problem is validated and the scratch buffers are acquired before C is
// touched: on error C is unchanged.
func (e *Engine[T]) Multiply(exec executor.Executor, transA, transB, transC bool, m, n, k int,
	alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) error {
	return e.MultiplyProblem(exec, &Problem[T]{
		TransA: transA, TransB: transB, TransC: transC,
		M: m, N: n, K: k,
		Alpha: alpha, A: a, LDA: lda,
		B: b, LDB: ldb,
		Beta: beta, C: c, LDC: ldc,
	})
}

// MultiplyProblem is Multiply with the arguments bundled in a Problem.
func (e *Engine[T]) MultiplyProblem(exec executor.Executor, p *Problem[T]) error {
	if exec == nil {
		return ErrNilExecutor
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return e.run(exec, p)
}

var (
	float32Engine = sync.OnceValues(func() (*Engine[float32], error) { return New[float32]() })
	float64Engine = sync.OnceValues(func() (*Engine[float64], error) { return New[float64]() })
)

// Sgemm is Multiply for float32 with the default engine.
func Sgemm(exec executor.Executor, transA, transB, transC bool, m, n, k int,
	alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	e, err := float32Engine()
	if err != nil {
		return err
	}
	return e.Multiply(exec, transA, transB, transC, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
}

// Dgemm is Multiply for float64 with the default engine.
func Dgemm(exec executor.Executor, transA, transB, transC bool, m, n, k int,
	alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) error {
	e, err := float64Engine()
	if err != nil {
		return err
	}
	return e.Multiply(exec, transA, transB, transC, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
}
