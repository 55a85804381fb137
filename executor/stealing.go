// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package executor

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// WorkStealing runs units on short-lived goroutines that claim the next
// unit from a shared counter, so faster goroutines take more units. The Go
// scheduler balances the goroutines across threads.
type WorkStealing struct {
	workers int
	group   *errgroup.Group
}

var _ Executor = (*WorkStealing)(nil)

// NewWorkStealing returns a WorkStealing executor running at most workers
// goroutines at a time.
func NewWorkStealing(workers int) *WorkStealing {
	return &WorkStealing{workers: max(workers, 1)}
}

// NumWorkers returns the goroutine limit.
func (w *WorkStealing) NumWorkers() int {
	return w.workers
}

// Execute implements Executor. At most NumWorkers goroutines run at once
// across all regions since the last Synchronize, so Execute returns once it
// has started its goroutines, which may mean waiting for goroutines of
// earlier regions to finish. The region itself may still be running.
func (w *WorkStealing) Execute(start, end, step int, work func(i int)) {
	n := Units(start, end, step)
	if n == 0 {
		return
	}
	if w.group == nil {
		w.group = new(errgroup.Group)
		w.group.SetLimit(w.workers)
	}

	var next atomic.Int64
	for range min(w.workers, n) {
		w.group.Go(func() error {
			for {
				unit := int(next.Add(1)) - 1
				if unit >= n {
					return nil
				}
				work(start + unit*step)
			}
		})
	}
}

// Synchronize implements Executor.
func (w *WorkStealing) Synchronize() {
	if w.group == nil {
		return
	}
	_ = w.group.Wait() // Work functions never fail.
	w.group = nil
}
