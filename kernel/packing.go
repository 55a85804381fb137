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

// packA packs one micro-panel of A: rows [0, mr) × columns [0, k) of the
// view, stored as [k][mr] so the kernel reads mr consecutive values per k.
//
// A transposed view already stores the mr values of one k contiguously, so
// that case is a copy per k. A natural view is gathered one row at a time.
func packA[T matrix.Float](a matrix.View[T], k, mr int, dst []T) {
	data := a.Data()
	base := a.Offset()
	rowStep, colStep := a.Steps()
	if a.IsTransposed() {
		for p := range k {
			src := base + p*colStep
			copy(dst[p*mr:(p+1)*mr], data[src:src+mr])
		}
		return
	}
	for i := range mr {
		row := data[base+i*rowStep : base+i*rowStep+k]
		for p, v := range row {
			dst[p*mr+i] = v
		}
	}
}

// packB packs one micro-panel of B: rows [0, k) × columns [0, nr) of the
// view, stored as [k][nr].
//
// A natural view is copied nr elements per row; a transposed view is
// gathered one column at a time.
func packB[T matrix.Float](b matrix.View[T], k, nr int, dst []T) {
	data := b.Data()
	base := b.Offset()
	rowStep, colStep := b.Steps()
	if !b.IsTransposed() {
		for p := range k {
			src := base + p*rowStep
			copy(dst[p*nr:(p+1)*nr], data[src:src+nr])
		}
		return
	}
	for j := range nr {
		col := data[base+j*colStep : base+j*colStep+k]
		for p, v := range col {
			dst[p*nr+j] = v
		}
	}
}
