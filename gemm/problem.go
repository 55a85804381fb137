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

package gemm

import (
	"fmt"
	"strings"

	"github.com/ajroetker/gemm/matrix"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidDimension is returned when m, n or k is not positive.
	ErrInvalidDimension = errors.New("invalid GEMM dimension")

	// ErrInvalidStride is returned when a leading dimension is smaller than
	// the stored row width of its operand, which would make rows overlap.
	ErrInvalidStride = errors.New("invalid GEMM leading dimension")

	// ErrBufferTooSmall is returned when an operand buffer can't hold its
	// logical extent.
	ErrBufferTooSmall = errors.New("GEMM buffer too small")

	// ErrNilExecutor is returned when Multiply is called without an executor.
	ErrNilExecutor = errors.New("nil GEMM executor")
)

// Problem describes one multiplication C ← Alpha·op(A)·op(B) + Beta·C, where
// op(A) is M×K, op(B) is K×N and C is M×N.
//
// The Trans flags select the transposed addressing of each buffer: a
// transposed A is stored K×M row-major with LDA ≥ M, and likewise for B and C.
type Problem[T matrix.Float] struct {
	TransA, TransB, TransC bool
	M, N, K                int
	Alpha                  T
	A                      []T
	LDA                    int
	B                      []T
	LDB                    int
	Beta                   T
	C                      []T
	LDC                    int
}

// Validate checks the dimensions, leading dimensions and buffer lengths.
// A valid problem can be computed without any out-of-bounds access, which is
// what lets the loop nest index the buffers without further checks.
func (p *Problem[T]) Validate() error {
	if p.M <= 0 || p.N <= 0 || p.K <= 0 {
		return errors.Wrapf(ErrInvalidDimension, "m=%d, n=%d, k=%d must all be positive", p.M, p.N, p.K)
	}
	if err := checkOperand("A", p.A, p.M, p.K, p.LDA, p.TransA); err != nil {
		return err
	}
	if err := checkOperand("B", p.B, p.K, p.N, p.LDB, p.TransB); err != nil {
		return err
	}
	return checkOperand("C", p.C, p.M, p.N, p.LDC, p.TransC)
}

// checkOperand validates a rows×cols operand.
func checkOperand[T matrix.Float](name string, data []T, rows, cols, ld int, transposed bool) error {
	if width := matrix.StoredWidth(rows, cols, transposed); ld < width {
		return errors.Wrapf(ErrInvalidStride, "ld%s=%d is smaller than %d for a %s", strings.ToLower(name), ld, width,
			shape(rows, cols, transposed))
	}
	if maxLD := matrix.MaxStride(rows, cols, transposed); ld > maxLD {
		return errors.Wrapf(ErrInvalidStride, "ld%s=%d overflows the addressable range of a %s (max %d)",
			strings.ToLower(name), ld, shape(rows, cols, transposed), maxLD)
	}
	if need := matrix.MinLen(rows, cols, ld, transposed); len(data) < need {
		return errors.Wrapf(ErrBufferTooSmall, "%s has %d elements, a %s with ld=%d needs %d", name, len(data),
			shape(rows, cols, transposed), ld, need)
	}
	return nil
}

func shape(rows, cols int, transposed bool) string {
	if transposed {
		return fmt.Sprintf("transposed %dx%d matrix", rows, cols)
	}
	return fmt.Sprintf("%dx%d matrix", rows, cols)
}

// String implements fmt.Stringer.
func (p *Problem[T]) String() string {
	return fmt.Sprintf("gemm(m=%d, n=%d, k=%d, transA=%v, transB=%v, transC=%v, alpha=%g, beta=%g)",
		p.M, p.N, p.K, p.TransA, p.TransB, p.TransC, float64(p.Alpha), float64(p.Beta))
}
