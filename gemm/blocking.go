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
	"github.com/ajroetker/gemm/executor"
	"github.com/ajroetker/gemm/kernel"
	"github.com/ajroetker/gemm/matrix"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// run executes the blocked loop nest on a validated problem.
//
// Loop structure (outermost to innermost):
//
//	for jc in N by Nc:           // B panel, L3
//	  for pc in K by Kc:         // K panel, L1
//	    for ic in M by Mc:       // A panel, L2
//	      pack B[pc:pc+kc, jc:jc+nc] if ic == 0
//	      pack A[ic:ic+mc, pc:pc+kc]
//	      Synchronize
//	      one unit per Nr column group:  MainTile per Mr group, BottomEdge for the rest
//	      one unit per leftover column:  RightEdge per Mr group, Corner for the rest
//	      Synchronize
//
// Only full Mr/Nr groups are packed; leftovers are read through views.
// Beta is applied by the first K panel; later K panels accumulate into C.
func (e *Engine[T]) run(exec executor.Executor, p *Problem[T]) error {
	s := e.strategy
	params := s.Params()

	// Acquire both buffers before the first write to C.
	bufA, err := e.alloc.Acquire(params.PackedASize())
	if err != nil {
		return errors.WithMessage(err, "packed A buffer")
	}
	defer bufA.Release()
	bufB, err := e.alloc.Acquire(params.PackedBSize())
	if err != nil {
		return errors.WithMessage(err, "packed B buffer")
	}
	defer bufB.Release()

	if klog.V(2).Enabled() {
		klog.Infof("%s: kernel %q (%s), %d×%d×%d blocks", p, s.Name(), params,
			ceilDiv(p.N, params.Nc), ceilDiv(p.K, params.Kc), ceilDiv(p.M, params.Mc))
	}

	b := &block[T]{
		strategy: s,
		params:   params,
		exec:     exec,
		packedA:  bufA.Data(),
		packedB:  bufB.Data(),
		a:        matrix.New(p.A, p.LDA, p.TransA),
		b:        matrix.New(p.B, p.LDB, p.TransB),
		c:        matrix.NewMutable(p.C, p.LDC, p.TransC),
		alpha:    p.Alpha,
	}
	for jc := 0; jc < p.N; jc += params.Nc {
		nc := min(params.Nc, p.N-jc)
		for pc := 0; pc < p.K; pc += params.Kc {
			kc := min(params.Kc, p.K-pc)
			b.beta = p.Beta
			if pc > 0 {
				b.beta = 1
			}
			for ic := 0; ic < p.M; ic += params.Mc {
				mc := min(params.Mc, p.M-ic)
				if ic == 0 {
					b.packB(pc, jc, kc, nc)
				}
				b.packA(ic, pc, mc, kc)
				exec.Synchronize()

				b.compute(ic, jc, pc, mc, nc, kc)
				exec.Synchronize()
			}
		}
	}
	return nil
}

// block holds the state shared by the units of one Multiply.
type block[T matrix.Float] struct {
	strategy         kernel.Strategy[T]
	params           kernel.Params
	exec             executor.Executor
	packedA, packedB []T
	a, b             matrix.View[T]
	c                matrix.Mutable[T]
	alpha, beta      T
}

// packB packs the full Nr column groups of B[pc:pc+kc, jc:jc+nc], one unit
// per group. Groups write disjoint kc×Nr ranges of packedB.
func (b *block[T]) packB(pc, jc, kc, nc int) {
	nr := b.params.Nr
	panel := b.b.Sub(pc, jc)
	b.exec.Execute(0, nc/nr, 1, func(g int) {
		b.strategy.PackB(panel.SubCol(g*nr), kc, b.packedB[g*kc*nr:(g+1)*kc*nr])
	})
}

// packA packs the full Mr row groups of A[ic:ic+mc, pc:pc+kc], one unit per
// group.
func (b *block[T]) packA(ic, pc, mc, kc int) {
	mr := b.params.Mr
	panel := b.a.Sub(ic, pc)
	b.exec.Execute(0, mc/mr, 1, func(g int) {
		b.strategy.PackA(panel.SubRow(g*mr), kc, b.packedA[g*kc*mr:(g+1)*kc*mr])
	})
}

// compute dispatches the tiles of C[ic:ic+mc, jc:jc+nc]. Every unit owns a
// distinct set of columns of C.
func (b *block[T]) compute(ic, jc, pc, mc, nc, kc int) {
	s := b.strategy
	mr, nr := b.params.Mr, b.params.Nr
	mGroups, nGroups := mc/mr, nc/nr
	mTail := mGroups * mr // First row not covered by a packed group.
	alpha, beta := b.alpha, b.beta
	cBlock := b.c.Sub(ic, jc)
	aBlock := b.a.Sub(ic, pc)
	bBlock := b.b.Sub(pc, jc)
	packedA := b.packedA

	b.exec.Execute(0, nGroups, 1, func(g int) {
		pb := b.packedB[g*kc*nr : (g+1)*kc*nr]
		col := g * nr
		for r := range mGroups {
			pa := packedA[r*kc*mr : (r+1)*kc*mr]
			s.MainTile(kc, alpha, pa, pb, beta, cBlock.Sub(r*mr, col))
		}
		if mTail < mc {
			s.BottomEdge(kc, mc-mTail, alpha, aBlock.SubRow(mTail), pb, beta, cBlock.Sub(mTail, col))
		}
	})

	b.exec.Execute(nGroups*nr, nc, 1, func(col int) {
		bCol := bBlock.SubCol(col)
		for r := range mGroups {
			pa := packedA[r*kc*mr : (r+1)*kc*mr]
			s.RightEdge(kc, 1, alpha, pa, bCol, beta, cBlock.Sub(r*mr, col))
		}
		for row := mTail; row < mc; row++ {
			s.Corner(kc, alpha, aBlock.SubRow(row), bCol, beta, cBlock.Sub(row, col))
		}
	})
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
