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
)

// GenericName is the registry name of the Generic strategy.
const GenericName = "generic"

// Generic is a scalar strategy that accepts any valid Params.
// It is the slowest strategy and the one tests use with tiny blocks to
// exercise every edge path of the loop nest.
type Generic[T matrix.Float] struct {
	scalarEdges[T]
}

var _ Strategy[float32] = (*Generic[float32])(nil)

// NewGeneric returns a Generic strategy for params.
func NewGeneric[T matrix.Float](params Params) (*Generic[T], error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Generic[T]{scalarEdges[T]{params: params}}, nil
}

// DefaultGenericParams returns the Generic preset for T's precision.
func DefaultGenericParams[T matrix.Float]() Params {
	return byPrecision[T](ParamsGenericFloat32, ParamsGenericFloat64)
}

func (g *Generic[T]) Name() string { return GenericName }

// MainTile implements Strategy.
func (g *Generic[T]) MainTile(k int, alpha T, pa, pb []T, beta T, c matrix.Mutable[T]) {
	mr, nr := g.params.Mr, g.params.Nr
	var acc [MaxTileElems]T
	for p := range k {
		aCol := pa[p*mr : (p+1)*mr]
		bRow := pb[p*nr : (p+1)*nr]
		for i, aVal := range aCol {
			accRow := acc[i*nr : (i+1)*nr]
			for j, bVal := range bRow {
				accRow[j] += aVal * bVal
			}
		}
	}
	writeTile(acc[:mr*nr], mr, nr, alpha, beta, c)
}
