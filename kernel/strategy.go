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

// Package kernel holds the microkernel strategies of the blocked GEMM engine.
//
// A Strategy packs panels of A and B into tile order and computes one
// micro-tile of C ← α·A·B + β·C at a time. The engine only ever calls:
//
//   - MainTile on a full Mr×Nr tile, with both operands packed;
//   - BottomEdge on the rows of an Nr column group left over after the last
//     full Mr group, reading A unpacked;
//   - RightEdge on a column left over after the last full Nr group, for each
//     full Mr group, reading B unpacked;
//   - Corner on the single elements where both leftovers meet.
//
// Accumulators always start at zero. When β is zero C is written without
// being read, so uninitialized (even NaN) output is overwritten.
//
// Three strategies are provided: Generic (scalar, any tile shape),
// Register4x4 (scalar 4×4 register tile) and Vector (go-highway vectors,
// 4 rows × 2 vectors). Best picks the fastest one for the running CPU; see
// Register and Lookup for the registry.
package kernel

import (
	"github.com/ajroetker/gemm/matrix"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownKernel is returned when a strategy name isn't registered.
	ErrUnknownKernel = errors.New("unknown GEMM kernel")

	// ErrUnsupportedTile is returned when a strategy can't run with the
	// given blocking parameters.
	ErrUnsupportedTile = errors.New("unsupported GEMM tile")
)

// Strategy is a microkernel: packing plus the four tile computations.
//
// k is the depth of the current K panel. pa and pb point at one packed
// micro-panel ([k][Mr] and [k][Nr]). Unpacked operands are views whose origin
// is the first element to read: a row of A for a, a column of B for b. c is a
// view whose origin is the top-left element of the output tile.
type Strategy[T matrix.Float] interface {
	// Name identifies the strategy in the registry.
	Name() string

	// Params returns the blocking parameters the strategy was built for.
	Params() Params

	// PackA packs Mr rows × k columns of a into dst as [k][Mr].
	PackA(a matrix.View[T], k int, dst []T)

	// PackB packs k rows × Nr columns of b into dst as [k][Nr].
	PackB(b matrix.View[T], k int, dst []T)

	// MainTile computes a full Mr×Nr tile from packed micro-panels.
	MainTile(k int, alpha T, pa, pb []T, beta T, c matrix.Mutable[T])

	// BottomEdge computes a rows×Nr strip, rows < Mr, from unpacked A and a
	// packed B micro-panel.
	BottomEdge(k, rows int, alpha T, a matrix.View[T], pb []T, beta T, c matrix.Mutable[T])

	// RightEdge computes an Mr×cols strip, cols < Nr, from a packed A
	// micro-panel and unpacked B.
	RightEdge(k, cols int, alpha T, pa []T, b matrix.View[T], beta T, c matrix.Mutable[T])

	// Corner computes the single element c(0, 0) from a row of A and a
	// column of B.
	Corner(k int, alpha T, a, b matrix.View[T], beta T, c matrix.Mutable[T])
}

// scalarEdges implements packing and the edge computations shared by all
// strategies. Strategies embed it and override what they vectorize.
type scalarEdges[T matrix.Float] struct {
	params Params
}

func (s scalarEdges[T]) Params() Params { return s.params }

func (s scalarEdges[T]) PackA(a matrix.View[T], k int, dst []T) {
	packA(a, k, s.params.Mr, dst)
}

func (s scalarEdges[T]) PackB(b matrix.View[T], k int, dst []T) {
	packB(b, k, s.params.Nr, dst)
}

func (s scalarEdges[T]) BottomEdge(k, rows int, alpha T, a matrix.View[T], pb []T, beta T, c matrix.Mutable[T]) {
	nr := s.params.Nr
	var acc [MaxTileElems]T
	aData := a.Data()
	rowStep, colStep := a.Steps()
	for i := range rows {
		aIdx := a.Offset() + i*rowStep
		accRow := acc[i*nr : (i+1)*nr]
		for p := range k {
			aVal := aData[aIdx+p*colStep]
			bRow := pb[p*nr : (p+1)*nr]
			for j, bVal := range bRow {
				accRow[j] += aVal * bVal
			}
		}
	}
	writeTile(acc[:rows*nr], rows, nr, alpha, beta, c)
}

func (s scalarEdges[T]) RightEdge(k, cols int, alpha T, pa []T, b matrix.View[T], beta T, c matrix.Mutable[T]) {
	mr := s.params.Mr
	var acc [MaxTileElems]T
	bData := b.Data()
	rowStep, colStep := b.Steps()
	for j := range cols {
		bIdx := b.Offset() + j*colStep
		for p := range k {
			bVal := bData[bIdx+p*rowStep]
			aCol := pa[p*mr : (p+1)*mr]
			for i, aVal := range aCol {
				acc[i*cols+j] += aVal * bVal
			}
		}
	}
	writeTile(acc[:mr*cols], mr, cols, alpha, beta, c)
}

func (s scalarEdges[T]) Corner(k int, alpha T, a, b matrix.View[T], beta T, c matrix.Mutable[T]) {
	aData, bData := a.Data(), b.Data()
	_, aStep := a.Steps()
	bStep, _ := b.Steps()
	aIdx, bIdx := a.Offset(), b.Offset()
	var sum T
	for range k {
		sum += aData[aIdx] * bData[bIdx]
		aIdx += aStep
		bIdx += bStep
	}
	if beta == 0 {
		c.Set(0, 0, alpha*sum)
		return
	}
	c.Set(0, 0, alpha*sum+beta*c.At(0, 0))
}

// writeTile stores alpha*acc (+ beta*C) into the rows×cols tile at the origin
// of c. acc is row-major with stride cols. C isn't read when beta is zero.
func writeTile[T matrix.Float](acc []T, rows, cols int, alpha, beta T, c matrix.Mutable[T]) {
	data := c.Data()
	rowStep, colStep := c.Steps()
	for i := range rows {
		cIdx := c.Offset() + i*rowStep
		accRow := acc[i*cols : (i+1)*cols]
		if beta == 0 {
			for _, v := range accRow {
				data[cIdx] = alpha * v
				cIdx += colStep
			}
			continue
		}
		for _, v := range accRow {
			data[cIdx] = alpha*v + beta*data[cIdx]
			cIdx += colStep
		}
	}
}
