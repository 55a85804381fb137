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
	"github.com/ajroetker/go-highway/hwy"
	"github.com/pkg/errors"
)

// VectorName is the registry name of the Vector strategy.
const VectorName = "vector"

// Vector is a SIMD strategy built on go-highway vectors.
//
// The micro-tile is 4 rows × 2 vectors (Nr = 2*lanes): 8 accumulators and 8
// fused multiply-adds per k. Bottom edges reuse the same two-vector row
// kernel; right edges and corners fall back to scalar code.
//
// The portable hwy ops return heap-backed vectors, so this strategy is
// registered below the scalar ones and is only used when selected by name.
type Vector[T matrix.Float] struct {
	scalarEdges[T]
	lanes int
}

var _ Strategy[float32] = (*Vector[float32])(nil)

// NewVector returns a Vector strategy. params must have Mr = 4 and
// Nr = 2*hwy.MaxLanes[T]().
func NewVector[T matrix.Float](params Params) (*Vector[T], error) {
	lanes := hwy.MaxLanes[T]()
	if params.Mr != 4 || params.Nr != 2*lanes {
		return nil, errors.Wrapf(ErrUnsupportedTile, "%s (%s) requires a 4x%d tile, got %dx%d",
			VectorName, hwy.CurrentName(), 2*lanes, params.Mr, params.Nr)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Vector[T]{scalarEdges: scalarEdges[T]{params: params}, lanes: lanes}, nil
}

func (v *Vector[T]) Name() string { return VectorName }

// MainTile implements Strategy.
func (v *Vector[T]) MainTile(k int, alpha T, pa, pb []T, beta T, c matrix.Mutable[T]) {
	lanes := v.lanes
	nr := 2 * lanes

	acc00 := hwy.Zero[T]()
	acc01 := hwy.Zero[T]()
	acc10 := hwy.Zero[T]()
	acc11 := hwy.Zero[T]()
	acc20 := hwy.Zero[T]()
	acc21 := hwy.Zero[T]()
	acc30 := hwy.Zero[T]()
	acc31 := hwy.Zero[T]()

	aIdx, bIdx := 0, 0
	for range k {
		vA0 := hwy.Set(pa[aIdx])
		vA1 := hwy.Set(pa[aIdx+1])
		vA2 := hwy.Set(pa[aIdx+2])
		vA3 := hwy.Set(pa[aIdx+3])
		aIdx += 4

		vB0 := hwy.Load(pb[bIdx : bIdx+lanes])
		vB1 := hwy.Load(pb[bIdx+lanes : bIdx+nr])
		bIdx += nr

		acc00 = hwy.MulAdd(vA0, vB0, acc00)
		acc01 = hwy.MulAdd(vA0, vB1, acc01)
		acc10 = hwy.MulAdd(vA1, vB0, acc10)
		acc11 = hwy.MulAdd(vA1, vB1, acc11)
		acc20 = hwy.MulAdd(vA2, vB0, acc20)
		acc21 = hwy.MulAdd(vA2, vB1, acc21)
		acc30 = hwy.MulAdd(vA3, vB0, acc30)
		acc31 = hwy.MulAdd(vA3, vB1, acc31)
	}

	if c.IsTransposed() {
		var tile [MaxTileElems]T
		hwy.Store(acc00, tile[0:lanes])
		hwy.Store(acc01, tile[lanes:nr])
		hwy.Store(acc10, tile[nr:nr+lanes])
		hwy.Store(acc11, tile[nr+lanes:2*nr])
		hwy.Store(acc20, tile[2*nr:2*nr+lanes])
		hwy.Store(acc21, tile[2*nr+lanes:3*nr])
		hwy.Store(acc30, tile[3*nr:3*nr+lanes])
		hwy.Store(acc31, tile[3*nr+lanes:4*nr])
		writeTile(tile[:4*nr], 4, nr, alpha, beta, c)
		return
	}
	vAlpha := hwy.Set(alpha)
	vBeta := hwy.Set(beta)
	v.storeRow(c, 0, acc00, acc01, vAlpha, vBeta, beta == 0)
	v.storeRow(c, 1, acc10, acc11, vAlpha, vBeta, beta == 0)
	v.storeRow(c, 2, acc20, acc21, vAlpha, vBeta, beta == 0)
	v.storeRow(c, 3, acc30, acc31, vAlpha, vBeta, beta == 0)
}

// BottomEdge implements Strategy, one row of two vectors at a time.
func (v *Vector[T]) BottomEdge(k, rows int, alpha T, a matrix.View[T], pb []T, beta T, c matrix.Mutable[T]) {
	lanes := v.lanes
	nr := 2 * lanes
	aData := a.Data()
	rowStep, colStep := a.Steps()
	vAlpha := hwy.Set(alpha)
	vBeta := hwy.Set(beta)
	var tile [MaxTileElems]T
	for i := range rows {
		acc0 := hwy.Zero[T]()
		acc1 := hwy.Zero[T]()
		aIdx := a.Offset() + i*rowStep
		bIdx := 0
		for range k {
			vA := hwy.Set(aData[aIdx])
			acc0 = hwy.MulAdd(vA, hwy.Load(pb[bIdx:bIdx+lanes]), acc0)
			acc1 = hwy.MulAdd(vA, hwy.Load(pb[bIdx+lanes:bIdx+nr]), acc1)
			aIdx += colStep
			bIdx += nr
		}
		if c.IsTransposed() {
			hwy.Store(acc0, tile[i*nr:i*nr+lanes])
			hwy.Store(acc1, tile[i*nr+lanes:(i+1)*nr])
			continue
		}
		v.storeRow(c, i, acc0, acc1, vAlpha, vBeta, beta == 0)
	}
	if c.IsTransposed() {
		writeTile(tile[:rows*nr], rows, nr, alpha, beta, c)
	}
}

// storeRow writes alpha*[acc0 acc1] (+ beta*C) to row i of a natural C tile.
func (v *Vector[T]) storeRow(c matrix.Mutable[T], i int, acc0, acc1, vAlpha, vBeta hwy.Vec[T], zeroBeta bool) {
	lanes := v.lanes
	data := c.Data()
	idx := c.RowIndex(i)
	dst0 := data[idx : idx+lanes]
	dst1 := data[idx+lanes : idx+2*lanes]
	if zeroBeta {
		hwy.Store(hwy.Mul(vAlpha, acc0), dst0)
		hwy.Store(hwy.Mul(vAlpha, acc1), dst1)
		return
	}
	hwy.Store(hwy.MulAdd(vAlpha, acc0, hwy.Mul(vBeta, hwy.Load(dst0))), dst0)
	hwy.Store(hwy.MulAdd(vAlpha, acc1, hwy.Mul(vBeta, hwy.Load(dst1))), dst1)
}
