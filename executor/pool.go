// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package executor

import (
	"sync"

	"k8s.io/klog/v2"
)

// FixedPool is a persistent worker pool with a static division of work.
// Workers are spawned once at creation and reused across Execute calls,
// which avoids a goroutine spawn per packed panel.
//
// Execute splits the units into one contiguous span per worker (see Split),
// so the assignment of units to workers depends only on the unit count and
// the worker count.
type FixedPool struct {
	numWorkers int
	workC      chan workItem
	pending    sync.WaitGroup

	// mu guards closed and sends on workC: Close takes it exclusively, so it
	// never closes workC under an Execute that is still queueing.
	mu     sync.RWMutex
	closed bool
}

var _ Executor = (*FixedPool)(nil)

// workItem is one worker's span of an Execute call.
type workItem struct {
	fn func()
}

// NewFixedPool creates a pool with numWorkers workers; if numWorkers <= 0
// it uses one. Workers persist until Close is called.
func NewFixedPool(numWorkers int) *FixedPool {
	numWorkers = max(numWorkers, 1)
	p := &FixedPool{
		numWorkers: numWorkers,
		// Room for every worker to have two spans pending.
		workC: make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	klog.V(2).Infof("executor pool started with %d workers", numWorkers)
	return p
}

func (p *FixedPool) worker() {
	for item := range p.workC {
		item.fn()
		p.pending.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *FixedPool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the pool after pending work completes. Calling Close more
// than once, or concurrently with Execute, is safe; a closed pool runs work
// inline.
func (p *FixedPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.workC)
}

// Span is a contiguous range of units [First, First+Count).
type Span struct {
	First, Count int
}

// Split divides n units across workers: each gets n/workers units and the
// first n%workers workers get one more. Workers beyond n get nothing, so at
// most min(n, workers) spans are returned.
func Split(n, workers int) []Span {
	if n <= 0 || workers <= 0 {
		return nil
	}
	workers = min(workers, n)
	base, remainder := n/workers, n%workers
	spans := make([]Span, workers)
	first := 0
	for w := range spans {
		count := base
		if w < remainder {
			count++
		}
		spans[w] = Span{First: first, Count: count}
		first += count
	}
	return spans
}

// Execute implements Executor. It returns once every span is queued.
func (p *FixedPool) Execute(start, end, step int, work func(i int)) {
	n := Units(start, end, step)
	if n == 0 {
		return
	}
	if p.numWorkers == 1 {
		Sequential{}.Execute(start, end, step, work)
		return
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		Sequential{}.Execute(start, end, step, work)
		return
	}
	defer p.mu.RUnlock()
	for _, span := range Split(n, p.numWorkers) {
		p.pending.Add(1)
		p.workC <- workItem{
			fn: func() {
				for unit := span.First; unit < span.First+span.Count; unit++ {
					work(start + unit*step)
				}
			},
		}
	}
}

// Synchronize implements Executor.
func (p *FixedPool) Synchronize() {
	p.pending.Wait()
}
