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

package kernel

import (
	"github.com/ajroetker/gemm/matrix"
	"github.com/pkg/errors"
)

// Register4x4Name is the registry name of the Register4x4 strategy.
const Register4x4Name = "register4x4"

// Register4x4 is a scalar strategy with a fixed 4×4 tile held in 16 local
// accumulators, which the compiler keeps in registers.
type Register4x4[T matrix.Float] struct {
	scalarEdges[T]
}

var _ Strategy[float64] = (*Register4x4[float64])(nil)

// NewRegister4x4 returns a Register4x4 strategy. params must have Mr = Nr = 4.
func NewRegister4x4[T matrix.Float](params Params) (*Register4x4[T], error) {
	if params.Mr != 4 || params.Nr != 4 {
		return nil, errors.Wrapf(ErrUnsupportedTile, "%s requires a 4x4 tile, got %dx%d",
			Register4x4Name, params.Mr, params.Nr)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Register4x4[T]{scalarEdges[T]{params: params}}, nil
}

// DefaultRegister4x4Params returns the Register4x4 preset for T's precision.
func DefaultRegister4x4Params[T matrix.Float]() Params {
	return byPrecision[T](ParamsRegister4x4Float32, ParamsRegister4x4Float64)
}

func (r *Register4x4[T]) Name() string { return Register4x4Name }

// MainTile implements Strategy.
func (r *Register4x4[T]) MainTile(k int, alpha T, pa, pb []T, beta T, c matrix.Mutable[T]) {
	var (
		c00, c01, c02, c03 T
		c10, c11, c12, c13 T
		c20, c21, c22, c23 T
		c30, c31, c32, c33 T
	)
	pa = pa[:4*k]
	pb = pb[:4*k]
	for p := 0; p < 4*k; p += 4 {
		a0, a1, a2, a3 := pa[p], pa[p+1], pa[p+2], pa[p+3]
		b0, b1, b2, b3 := pb[p], pb[p+1], pb[p+2], pb[p+3]

		c00 += a0 * b0
		c01 += a0 * b1
		c02 += a0 * b2
		c03 += a0 * b3

		c10 += a1 * b0
		c11 += a1 * b1
		c12 += a1 * b2
		c13 += a1 * b3

		c20 += a2 * b0
		c21 += a2 * b1
		c22 += a2 * b2
		c23 += a2 * b3

		c30 += a3 * b0
		c31 += a3 * b1
		c32 += a3 * b2
		c33 += a3 * b3
	}
	acc := [16]T{
		c00, c01, c02, c03,
		c10, c11, c12, c13,
		c20, c21, c22, c23,
		c30, c31, c32, c33,
	}
	writeTile(acc[:], 4, 4, alpha, beta, c)
}
