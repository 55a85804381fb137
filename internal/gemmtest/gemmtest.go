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

// Package gemmtest holds the reference multiplication and the helpers shared
// by the GEMM tests and the gemmbench -check mode.
package gemmtest

import (
	"math"
	"math/rand/v2"
	"unsafe"

	"github.com/ajroetker/gemm/matrix"
	"github.com/pkg/errors"
)

// Reference computes C ← alpha·op(A)·op(B) + beta·C with a naive triple loop,
// accumulating in float64. C isn't read when beta is zero.
func Reference[T matrix.Float](transA, transB, transC bool, m, n, k int, alpha T, a []T, lda int,
	b []T, ldb int, beta T, c []T, ldc int) {
	av := matrix.New(a, lda, transA)
	bv := matrix.New(b, ldb, transB)
	cv := matrix.NewMutable(c, ldc, transC)
	for i := range m {
		for j := range n {
			var sum float64
			for p := range k {
				sum += float64(av.At(i, p)) * float64(bv.At(p, j))
			}
			value := float64(alpha) * sum
			if beta != 0 {
				value += float64(beta) * float64(cv.At(i, j))
			}
			cv.Set(i, j, T(value))
		}
	}
}

// FillIota sets data[i] = start + i.
func FillIota[T matrix.Float](data []T, start T) {
	for i := range data {
		data[i] = start + T(i)
	}
}

// FillRandom fills data with values uniformly distributed in [0, 1).
func FillRandom[T matrix.Float](rng *rand.Rand, data []T) {
	for i := range data {
		data[i] = T(rng.Float64())
	}
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Fill sets every element of data to value.
func Fill[T matrix.Float](data []T, value T) {
	for i := range data {
		data[i] = value
	}
}

// Transpose returns the rows×cols matrix stored row-major in src with
// leading dimension ld as a cols×rows row-major matrix with leading
// dimension rows.
func Transpose[T matrix.Float](src []T, rows, cols, ld int) []T {
	dst := make([]T, rows*cols)
	for r := range rows {
		for c := range cols {
			dst[c*rows+r] = src[r*ld+c]
		}
	}
	return dst
}

// Tolerance returns the relative tolerance used to compare GEMM results of
// inputs in [0, 1) for T's precision.
func Tolerance[T matrix.Float]() float64 {
	var zero T
	if unsafe.Sizeof(zero) == 8 {
		return 1e-10
	}
	return 1e-4
}

// Close reports whether x and y are equal within a relative tolerance
// |x-y|/(|x|+|y|) < tol, with tol also used as an absolute floor near zero.
// Two NaNs are equal, so untouched NaN padding compares clean.
func Close(x, y, tol float64) bool {
	if x == y || (math.IsNaN(x) && math.IsNaN(y)) {
		return true
	}
	diff := math.Abs(x - y)
	if diff <= tol {
		return true
	}
	return diff/(math.Abs(x)+math.Abs(y)) < tol
}

// Compare returns an error describing the first element where got differs
// from want beyond tol, or nil.
func Compare[T matrix.Float](want, got []T, tol float64) error {
	if len(want) != len(got) {
		return errors.Errorf("length mismatch: want %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if !Close(float64(want[i]), float64(got[i]), tol) {
			return errors.Errorf("element %d: want %g, got %g (tol %g)", i, want[i], got[i], tol)
		}
	}
	return nil
}

// TestingT is the subset of testing.TB used by AssertClose.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// AssertClose reports a test error if got differs from want beyond tol.
func AssertClose[T matrix.Float](t TestingT, want, got []T, tol float64, msgAndArgs ...any) bool {
	t.Helper()
	if err := Compare(want, got, tol); err != nil {
		if len(msgAndArgs) > 0 {
			if format, ok := msgAndArgs[0].(string); ok {
				t.Errorf(format+": %v", append(msgAndArgs[1:], err)...)
				return false
			}
		}
		t.Errorf("%v", err)
		return false
	}
	return true
}
