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
	"math"
	"testing"

	"github.com/ajroetker/gemm/internal/gemmtest"
	"github.com/ajroetker/gemm/matrix"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackA(t *testing.T) {
	const mr, k = 3, 5
	for _, transposed := range []bool{false, true} {
		// Logical 4x7 A, packing the group starting at (1, 2).
		const rows, cols = 4, 7
		ld := matrix.StoredWidth(rows, cols, transposed) + 2
		data := make([]float32, matrix.MinLen(rows, cols, ld, transposed))
		gemmtest.FillIota(data, 1)
		a := matrix.New(data, ld, transposed).Sub(1, 2)

		dst := make([]float32, mr*k)
		packA(a, k, mr, dst)
		for p := range k {
			for i := range mr {
				assert.Equal(t, a.At(i, p), dst[p*mr+i], "transposed=%v p=%d i=%d", transposed, p, i)
			}
		}
	}
}

func TestPackB(t *testing.T) {
	const nr, k = 4, 3
	for _, transposed := range []bool{false, true} {
		const rows, cols = 5, 9
		ld := matrix.StoredWidth(rows, cols, transposed) + 1
		data := make([]float64, matrix.MinLen(rows, cols, ld, transposed))
		gemmtest.FillIota(data, 1)
		b := matrix.New(data, ld, transposed).Sub(2, 3)

		dst := make([]float64, nr*k)
		packB(b, k, nr, dst)
		for p := range k {
			for j := range nr {
				assert.Equal(t, b.At(p, j), dst[p*nr+j], "transposed=%v p=%d j=%d", transposed, p, j)
			}
		}
	}
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, ParamsGenericFloat32().Validate())
	require.NoError(t, ParamsGenericFloat64().Validate())
	require.NoError(t, ParamsVector[float32]().Validate())
	require.NoError(t, ParamsVector[float64]().Validate())

	for _, p := range []Params{
		{Mr: 0, Nr: 4, Kc: 8, Mc: 8, Nc: 8},
		{Mr: 4, Nr: 4, Kc: -1, Mc: 8, Nc: 8},
		{Mr: 32, Nr: 16, Kc: 8, Mc: 32, Nc: 16},
		{Mr: 4, Nr: 8, Kc: 8, Mc: 2, Nc: 8},
	} {
		err := p.Validate()
		assert.Truef(t, errors.Is(err, ErrUnsupportedTile), "%s: got %v", p, err)
	}

	p := Params{Mr: 4, Nr: 3, Kc: 10, Mc: 9, Nc: 7}
	assert.Equal(t, 8*10, p.PackedASize())
	assert.Equal(t, 6*10, p.PackedBSize())
}

func TestConstructorsRejectTiles(t *testing.T) {
	_, err := NewRegister4x4[float32](ParamsGenericFloat32())
	assert.True(t, errors.Is(err, ErrUnsupportedTile))

	_, err = NewVector[float64](Params{Mr: 4, Nr: 3, Kc: 8, Mc: 8, Nc: 8})
	assert.True(t, errors.Is(err, ErrUnsupportedTile))

	_, err = NewGeneric[float32](Params{})
	assert.True(t, errors.Is(err, ErrUnsupportedTile))
}

// strategiesFor returns one instance of every strategy, with small blocks.
func strategiesFor[T matrix.Float](t *testing.T) []Strategy[T] {
	generic, err := NewGeneric[T](Params{Mr: 3, Nr: 5, Kc: 7, Mc: 6, Nc: 10})
	require.NoError(t, err)
	reg, err := NewRegister4x4[T](DefaultRegister4x4Params[T]())
	require.NoError(t, err)
	vec, err := NewVector[T](ParamsVector[T]())
	require.NoError(t, err)
	return []Strategy[T]{generic, reg, vec}
}

// tileCase holds random operands for one tile computation:
// A is mr×k natural, B is k×nr natural.
type tileCase[T matrix.Float] struct {
	mr, nr, k int
	a, b      []T
}

func newTileCase[T matrix.Float](p Params, k int, seed uint64) tileCase[T] {
	rng := gemmtest.NewRand(seed)
	tc := tileCase[T]{mr: p.Mr, nr: p.Nr, k: k, a: make([]T, p.Mr*k), b: make([]T, k*p.Nr)}
	gemmtest.FillRandom(rng, tc.a)
	gemmtest.FillRandom(rng, tc.b)
	return tc
}

// expected returns the rows×cols block of alpha*A*B + beta*c0 (row-major,
// ld cols) with the block origin at (row0, col0).
func (tc tileCase[T]) expected(row0, col0, rows, cols int, alpha, beta T, c0 []T) []T {
	want := append([]T(nil), c0...)
	a := tc.a[row0*tc.k:]
	b := tc.b[col0:]
	gemmtest.Reference(false, false, false, rows, cols, tc.k, alpha, a, tc.k, b, tc.nr, beta, want, cols)
	return want
}

func testStrategy[T matrix.Float](t *testing.T, s Strategy[T]) {
	p := s.Params()
	tol := gemmtest.Tolerance[T]()
	const k = 11
	tc := newTileCase[T](p, k, 42)
	av := matrix.New(tc.a, k, false)
	bv := matrix.New(tc.b, p.Nr, false)
	pa := make([]T, p.Mr*k)
	pb := make([]T, k*p.Nr)
	s.PackA(av, k, pa)
	s.PackB(bv, k, pb)

	for _, transC := range []bool{false, true} {
		for _, beta := range []T{0, 0.5} {
			alpha := T(1.5)
			name := fmt.Sprintf("transC=%v/beta=%g", transC, float64(beta))

			// Main tile.
			c0 := make([]T, p.Mr*p.Nr)
			gemmtest.FillIota(c0, 1)
			want := tc.expected(0, 0, p.Mr, p.Nr, alpha, beta, c0)
			got := storeAs(c0, p.Mr, p.Nr, transC)
			s.MainTile(k, alpha, pa, pb, beta, matrix.NewMutable(got, matrix.StoredWidth(p.Mr, p.Nr, transC), transC))
			gemmtest.AssertClose(t, want, loadFrom(got, p.Mr, p.Nr, transC), tol, "%s MainTile %s", s.Name(), name)

			// Bottom edge: the last rows of A against packed B.
			if rows := p.Mr - 1; rows > 0 {
				c0 := make([]T, rows*p.Nr)
				gemmtest.FillIota(c0, 2)
				want := tc.expected(1, 0, rows, p.Nr, alpha, beta, c0)
				got := storeAs(c0, rows, p.Nr, transC)
				cv := matrix.NewMutable(got, matrix.StoredWidth(rows, p.Nr, transC), transC)
				s.BottomEdge(k, rows, alpha, av.SubRow(1), pb, beta, cv)
				gemmtest.AssertClose(t, want, loadFrom(got, rows, p.Nr, transC), tol, "%s BottomEdge %s", s.Name(), name)
			}

			// Right edge: packed A against the last columns of B.
			if cols := p.Nr - 1; cols > 0 {
				c0 := make([]T, p.Mr*cols)
				gemmtest.FillIota(c0, 3)
				want := tc.expected(0, 1, p.Mr, cols, alpha, beta, c0)
				got := storeAs(c0, p.Mr, cols, transC)
				cv := matrix.NewMutable(got, matrix.StoredWidth(p.Mr, cols, transC), transC)
				s.RightEdge(k, cols, alpha, pa, bv.SubCol(1), beta, cv)
				gemmtest.AssertClose(t, want, loadFrom(got, p.Mr, cols, transC), tol, "%s RightEdge %s", s.Name(), name)
			}

			// Corner: last row of A times last column of B.
			c0 = []T{7}
			want = tc.expected(p.Mr-1, p.Nr-1, 1, 1, alpha, beta, c0)
			got = []T{7}
			s.Corner(k, alpha, av.SubRow(p.Mr-1), bv.SubCol(p.Nr-1), beta, matrix.NewMutable(got, 1, transC))
			gemmtest.AssertClose(t, want, got, tol, "%s Corner %s", s.Name(), name)
		}
	}
}

// storeAs returns a copy of the row-major rows×cols matrix m, transposed in
// memory if transposed is set.
func storeAs[T matrix.Float](m []T, rows, cols int, transposed bool) []T {
	if transposed {
		return gemmtest.Transpose(m, rows, cols, cols)
	}
	return append([]T(nil), m...)
}

// loadFrom inverts storeAs.
func loadFrom[T matrix.Float](m []T, rows, cols int, transposed bool) []T {
	if transposed {
		return gemmtest.Transpose(m, cols, rows, rows)
	}
	return m
}

func TestStrategies(t *testing.T) {
	t.Run("float32", func(t *testing.T) {
		for _, s := range strategiesFor[float32](t) {
			t.Run(s.Name(), func(t *testing.T) { testStrategy(t, s) })
		}
	})
	t.Run("float64", func(t *testing.T) {
		for _, s := range strategiesFor[float64](t) {
			t.Run(s.Name(), func(t *testing.T) { testStrategy(t, s) })
		}
	})
}

func TestBetaZeroIgnoresNaN(t *testing.T) {
	for _, s := range strategiesFor[float32](t) {
		p := s.Params()
		const k = 4
		tc := newTileCase[float32](p, k, 7)
		pa := make([]float32, p.Mr*k)
		pb := make([]float32, k*p.Nr)
		s.PackA(matrix.New(tc.a, k, false), k, pa)
		s.PackB(matrix.New(tc.b, p.Nr, false), k, pb)

		for _, transC := range []bool{false, true} {
			c := make([]float32, p.Mr*p.Nr)
			gemmtest.Fill(c, float32(math.NaN()))
			s.MainTile(k, 1, pa, pb, 0, matrix.NewMutable(c, matrix.StoredWidth(p.Mr, p.Nr, transC), transC))
			for i, v := range c {
				require.Falsef(t, math.IsNaN(float64(v)), "%s transC=%v: NaN at %d", s.Name(), transC, i)
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	names := Names()
	assert.Contains(t, names, GenericName)
	assert.Contains(t, names, Register4x4Name)
	assert.Equal(t, Register4x4Name, names[0])
	if _, enabled := SIMD(); enabled {
		assert.Contains(t, names, VectorName)
	}

	s, err := Lookup[float64](Register4x4Name)
	require.NoError(t, err)
	assert.Equal(t, Register4x4Name, s.Name())

	_, err = Lookup[float32]("no-such-kernel")
	assert.True(t, errors.Is(err, ErrUnknownKernel))

	Register[float64]("tiny", -100, func() (Strategy[float64], error) {
		return NewGeneric[float64](Params{Mr: 2, Nr: 2, Kc: 4, Mc: 4, Nc: 4})
	})
	s, err = Lookup[float64]("tiny")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Params().Mr)
	_, err = Lookup[float32]("tiny")
	assert.True(t, errors.Is(err, ErrUnknownKernel), "registered for float64 only")
}

func TestBestHonorsConfiguration(t *testing.T) {
	t.Setenv(GEMM_KERNEL, GenericName)
	s, err := Best[float32]()
	require.NoError(t, err)
	assert.Equal(t, GenericName, s.Name())

	t.Setenv(GEMM_KERNEL, "no-such-kernel")
	_, err = Best[float32]()
	assert.True(t, errors.Is(err, ErrUnknownKernel), "got %v", err)

	t.Setenv(GEMM_KERNEL, "")
	DefaultKernel = "no-such-kernel"
	defer func() { DefaultKernel = "" }()
	_, err = Best[float64]()
	assert.True(t, errors.Is(err, ErrUnknownKernel), "got %v", err)

	DefaultKernel = Register4x4Name
	s, err = Best[float64]()
	require.NoError(t, err)
	assert.Equal(t, Register4x4Name, s.Name())
}

// The default pick must be a register-resident scalar tile: Vector's portable
// hwy ops allocate per operation and are much slower.
func TestBestDefault(t *testing.T) {
	t.Setenv(GEMM_KERNEL, "")
	for _, name := range []string{bestName[float32](t), bestName[float64](t)} {
		assert.Equal(t, Register4x4Name, name)
	}
}

func bestName[T matrix.Float](t *testing.T) string {
	s, err := Best[T]()
	require.NoError(t, err)
	return s.Name()
}

type myFloat float32

func TestBestForNamedTypes(t *testing.T) {
	s, err := Best[myFloat]()
	require.NoError(t, err)
	assert.Equal(t, GenericName, s.Name())
}
