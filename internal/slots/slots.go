/*
 * MIT License
 *
 * Copyright (c) 2025-2026 Steady Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package slots bounds how many pooled actors execute concurrently. Actors
// registered with the pooled execution model contend for a slot per run
// invocation; solo actors bypass the pool entirely.
package slots

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool is a fixed-capacity set of cooperative execution slots.
// All methods are safe for concurrent use.
type Pool struct {
	capacity int64
	sem      *semaphore.Weighted
}

// New creates a Pool with the given capacity. A capacity below one defaults
// to the number of CPUs.
func New(capacity int) *Pool {
	if capacity < 1 {
		capacity = runtime.NumCPU()
	}
	return &Pool{
		capacity: int64(capacity),
		sem:      semaphore.NewWeighted(int64(capacity)),
	}
}

// Capacity returns the number of slots in the pool.
func (p *Pool) Capacity() int {
	return int(p.capacity)
}

// Acquire blocks until a slot is free or ctx is canceled.
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// TryAcquire grabs a slot without blocking and reports whether it succeeded.
func (p *Pool) TryAcquire() bool {
	return p.sem.TryAcquire(1)
}

// Release frees a previously acquired slot.
func (p *Pool) Release() {
	p.sem.Release(1)
}
