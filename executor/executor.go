// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package executor provides the parallel executors driving the GEMM engine.
//
// An Executor runs work(i) for every i in [start, end) stepped by step,
// possibly in parallel and possibly after Execute returns. Synchronize blocks
// until everything submitted so far has completed; work submitted after a
// Synchronize happens-after everything submitted before it. Within one
// synchronized region no order between units is guaranteed.
//
// Usage:
//
//	exec, err := executor.New(executor.KindPool, runtime.GOMAXPROCS(0))
//	if err != nil {
//	    return err
//	}
//	defer executor.Close(exec)
//
//	exec.Execute(0, n, 1, func(i int) { process(i) })
//	exec.Synchronize()
//
// Executors keep per-region state, so an instance serves one caller at a
// time.
package executor

import (
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Executor is the scheduling capability consumed by the GEMM engine.
type Executor interface {
	// Execute submits work(i) for i = start, start+step, ... < end.
	Execute(start, end, step int, work func(i int))

	// Synchronize blocks until all work submitted so far has completed.
	Synchronize()
}

// ErrUnknownExecutor is returned by New and ParseKind for unknown kinds.
var ErrUnknownExecutor = errors.New("unknown executor")

// Kind names an executor implementation.
type Kind string

const (
	// KindSequential runs work inline on the calling goroutine.
	KindSequential Kind = "sequential"

	// KindStealing balances units dynamically across goroutines.
	KindStealing Kind = "stealing"

	// KindPool divides units statically across persistent workers.
	KindPool Kind = "pool"
)

// Kinds lists the known executor kinds.
func Kinds() []Kind {
	return []Kind{KindSequential, KindStealing, KindPool}
}

// ParseKind converts a name, case-insensitively, into a Kind.
func ParseKind(name string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, k := range Kinds() {
		if k == kind {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownExecutor, "%q, valid kinds are %v", name, Kinds())
}

// New returns an executor of the given kind. If workers <= 0, uses
// GOMAXPROCS. Release it with Close.
func New(kind Kind, workers int) (Executor, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	switch kind {
	case KindSequential:
		return Sequential{}, nil
	case KindStealing:
		return NewWorkStealing(workers), nil
	case KindPool:
		return NewFixedPool(workers), nil
	}
	return nil, errors.Wrapf(ErrUnknownExecutor, "%q", kind)
}

// Close releases the resources of executors that hold any (FixedPool).
// Other executors are left untouched.
func Close(e Executor) {
	if c, ok := e.(interface{ Close() }); ok {
		c.Close()
	}
}

// Units returns the number of indices visited by Execute(start, end, step).
func Units(start, end, step int) int {
	if step <= 0 || end <= start {
		return 0
	}
	return (end - start + step - 1) / step
}

// Sequential runs every unit inline, in index order. Synchronize is a no-op.
type Sequential struct{}

func (Sequential) Execute(start, end, step int, work func(i int)) {
	if step <= 0 {
		return
	}
	for i := start; i < end; i += step {
		work(i)
	}
}

func (Sequential) Synchronize() {}
