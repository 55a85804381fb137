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

// Command gemmbench times the blocked GEMM engine and optionally checks its
// result against the naive triple loop.
//
// Usage:
//
//	gemmbench -m 1024 -n 1024 -k 1024 -executor pool
//	gemmbench -precision f64 -trans tn -kernel register4x4 -check
//	gemmbench -v 2 ...          # log kernel selection and blocking
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
	"unsafe"

	"github.com/ajroetker/gemm/executor"
	"github.com/ajroetker/gemm/gemm"
	"github.com/ajroetker/gemm/internal/gemmtest"
	"github.com/ajroetker/gemm/kernel"
	"github.com/ajroetker/gemm/matrix"
	"github.com/ajroetker/go-highway/hwy"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagM         = flag.Int("m", 512, "Rows of op(A) and C")
	flagN         = flag.Int("n", 512, "Columns of op(B) and C")
	flagK         = flag.Int("k", 512, "Columns of op(A), rows of op(B)")
	flagPrecision = flag.String("precision", "f32", "Element type: f32 or f64")
	flagExecutor  = flag.String("executor", string(executor.KindPool), "Executor: sequential, stealing or pool")
	flagWorkers   = flag.Int("workers", 0, "Number of workers (default: GOMAXPROCS)")
	flagKernel    = flag.String("kernel", "", "Microkernel name (default: best for this CPU, or $"+kernel.GEMM_KERNEL+")")
	flagTrans     = flag.String("trans", "nn", "Transposition of A and B: nn, nt, tn or tt")
	flagRepeats   = flag.Int("repeats", 5, "Number of timed multiplications")
	flagCheck     = flag.Bool("check", false, "Compare the result with the naive triple loop")
	flagSeed      = flag.Uint64("seed", 42, "Random seed for the inputs")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *flagKernel != "" {
		kernel.DefaultKernel = *flagKernel
	}
	transA, transB, err := parseTrans(*flagTrans)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}
	kind := must.M1(executor.ParseKind(*flagExecutor))
	exec := must.M1(executor.New(kind, *flagWorkers))
	defer executor.Close(exec)

	cfg := config{
		m: *flagM, n: *flagN, k: *flagK,
		transA: transA, transB: transB,
		repeats: *flagRepeats, check: *flagCheck, seed: *flagSeed,
	}
	switch *flagPrecision {
	case "f32", "float32":
		err = bench[float32](exec, cfg)
	case "f64", "float64":
		err = bench[float64](exec, cfg)
	default:
		err = errors.Errorf("unknown precision %q, use f32 or f64", *flagPrecision)
	}
	if err != nil {
		klog.Errorf("%+v", err)
		os.Exit(1)
	}
}

type config struct {
	m, n, k        int
	transA, transB bool
	repeats        int
	check          bool
	seed           uint64
}

func parseTrans(s string) (transA, transB bool, err error) {
	if len(s) != 2 {
		return false, false, errors.Errorf("invalid -trans %q, use nn, nt, tn or tt", s)
	}
	parse := func(c byte) (bool, error) {
		switch c {
		case 'n', 'N':
			return false, nil
		case 't', 'T':
			return true, nil
		}
		return false, errors.Errorf("invalid -trans %q, use nn, nt, tn or tt", s)
	}
	if transA, err = parse(s[0]); err != nil {
		return
	}
	transB, err = parse(s[1])
	return
}

func bench[T matrix.Float](exec executor.Executor, cfg config) error {
	engine, err := gemm.New[T]()
	if err != nil {
		return err
	}
	s := engine.Strategy()
	isa, simd := kernel.SIMD()
	fmt.Printf("kernel %q (%s), simd=%s enabled=%v, hwy=%s\n", s.Name(), s.Params(), isa, simd, hwy.CurrentName())

	m, n, k := cfg.m, cfg.n, cfg.k
	lda := matrix.StoredWidth(m, k, cfg.transA)
	ldb := matrix.StoredWidth(k, n, cfg.transB)
	a := make([]T, m*k)
	b := make([]T, k*n)
	c := make([]T, m*n)
	rng := gemmtest.NewRand(cfg.seed)
	gemmtest.FillRandom(rng, a)
	gemmtest.FillRandom(rng, b)

	var zero T
	footprint := uint64(len(a)+len(b)+len(c)) * uint64(unsafe.Sizeof(zero))
	flops := 2 * int64(m) * int64(n) * int64(k)
	fmt.Printf("C(%d×%d) = A(%d×%d) · B(%d×%d), trans=%v/%v, %s flops/call, %s of operands\n",
		m, n, m, k, k, n, cfg.transA, cfg.transB, humanize.Comma(flops), humanize.Bytes(footprint))

	best := time.Duration(1<<63 - 1)
	var total time.Duration
	for i := range max(cfg.repeats, 1) {
		start := time.Now()
		err := engine.Multiply(exec, cfg.transA, cfg.transB, false, m, n, k, 1, a, lda, b, ldb, 0, c, n)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		klog.V(1).Infof("run %d: %s", i, elapsed)
		best = min(best, elapsed)
		total += elapsed
	}
	gflops := float64(flops) / best.Seconds() / 1e9
	fmt.Printf("best %s, mean %s, %.2f GFLOP/s\n", best, total/time.Duration(max(cfg.repeats, 1)), gflops)

	if cfg.check {
		want := make([]T, m*n)
		gemmtest.Reference(cfg.transA, cfg.transB, false, m, n, k, 1, a, lda, b, ldb, 0, want, n)
		tol := gemmtest.Tolerance[T]()
		if err := gemmtest.Compare(want, c, tol); err != nil {
			return errors.WithMessage(err, "result check failed")
		}
		fmt.Printf("check passed (tol %g)\n", tol)
	}
	return nil
}
