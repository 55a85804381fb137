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
	"fmt"
	"unsafe"

	"github.com/ajroetker/gemm/matrix"
	"github.com/ajroetker/go-highway/hwy"
	"github.com/pkg/errors"
)

// MaxTileElems bounds Mr*Nr, the size of the per-tile accumulator block that
// strategies keep on the stack.
const MaxTileElems = 256

// Params defines the blocking parameters of the GotoBLAS-style loop nest.
//
//   - Mr × Nr: micro-tile dimensions (register blocking)
//   - Kc: K-blocking (L1 cache), height of the packed panels
//   - Mc: M-blocking (L2 cache), rows of the packed A panel
//   - Nc: N-blocking (L3 cache), columns of the packed B panel
//
// Packed layouts:
//   - Packed A: [Mc/Mr, Kc, Mr], K-first within micro-panels
//   - Packed B: [Nc/Nr, Kc, Nr], K-first within micro-panels
type Params struct {
	Mr int // Micro-tile rows
	Nr int // Micro-tile columns, in elements
	Kc int // K-blocking
	Mc int // M-blocking
	Nc int // N-blocking
}

// Validate returns ErrUnsupportedTile if the parameters can't drive the
// loop nest.
func (p Params) Validate() error {
	if p.Mr <= 0 || p.Nr <= 0 || p.Kc <= 0 || p.Mc <= 0 || p.Nc <= 0 {
		return errors.Wrapf(ErrUnsupportedTile, "all blocking parameters must be positive, got %s", p)
	}
	if p.Mr*p.Nr > MaxTileElems {
		return errors.Wrapf(ErrUnsupportedTile, "micro-tile %dx%d exceeds %d elements", p.Mr, p.Nr, MaxTileElems)
	}
	if p.Mc < p.Mr || p.Nc < p.Nr {
		return errors.Wrapf(ErrUnsupportedTile, "blocks smaller than the micro-tile: %s", p)
	}
	return nil
}

// PackedASize returns the number of elements of the packed A buffer.
// Only full Mr groups are packed, so this is (Mc rounded down to Mr) × Kc.
func (p Params) PackedASize() int {
	return (p.Mc / p.Mr) * p.Mr * p.Kc
}

// PackedBSize returns the number of elements of the packed B buffer.
func (p Params) PackedBSize() int {
	return (p.Nc / p.Nr) * p.Nr * p.Kc
}

// String implements fmt.Stringer.
func (p Params) String() string {
	return fmt.Sprintf("Mr=%d Nr=%d Kc=%d Mc=%d Nc=%d", p.Mr, p.Nr, p.Kc, p.Mc, p.Nc)
}

// ParamsGenericFloat32 returns the single precision blocking of the scalar
// Generic strategy: a tall 16×4 tile and a short K block.
func ParamsGenericFloat32() Params {
	return Params{Mr: 16, Nr: 4, Kc: 128, Mc: 256, Nc: 1024}
}

// ParamsGenericFloat64 returns the double precision blocking of the Generic
// strategy.
func ParamsGenericFloat64() Params {
	return Params{Mr: 8, Nr: 4, Kc: 512, Mc: 256, Nc: 4096}
}

// ParamsRegister4x4Float32 returns the blocking of Register4x4 for float32.
func ParamsRegister4x4Float32() Params {
	return Params{Mr: 4, Nr: 4, Kc: 256, Mc: 256, Nc: 1024}
}

// ParamsRegister4x4Float64 returns the blocking of Register4x4 for float64.
func ParamsRegister4x4Float64() Params {
	return Params{Mr: 4, Nr: 4, Kc: 128, Mc: 128, Nc: 1024}
}

// ParamsVector returns the blocking of the Vector strategy for T at the
// current SIMD width: 4 rows × 2 vectors, with K/M/N blocks sized for the
// cache hierarchy typical of that ISA family.
func ParamsVector[T matrix.Float]() Params {
	lanes := hwy.MaxLanes[T]()
	var zero T
	double := unsafe.Sizeof(zero) == 8
	p := Params{Mr: 4, Nr: 2 * lanes}
	switch width := hwy.CurrentWidth(); {
	case width >= 64: // AVX-512: 32KB L1d, 1MB L2.
		if double {
			p.Kc, p.Mc, p.Nc = 256, 256, 2048
		} else {
			p.Kc, p.Mc, p.Nc = 512, 512, 4096
		}
	case width >= 32: // AVX2: 32KB L1d, 256KB L2.
		if double {
			p.Kc, p.Mc, p.Nc = 128, 128, 1024
		} else {
			p.Kc, p.Mc, p.Nc = 256, 256, 2048
		}
	default: // NEON or no SIMD.
		if double {
			p.Kc, p.Mc, p.Nc = 128, 128, 512
		} else {
			p.Kc, p.Mc, p.Nc = 256, 256, 1024
		}
	}
	return p
}

// byPrecision picks the float32 or float64 preset for T.
func byPrecision[T matrix.Float](single, double func() Params) Params {
	var zero T
	if unsafe.Sizeof(zero) == 8 {
		return double()
	}
	return single()
}
