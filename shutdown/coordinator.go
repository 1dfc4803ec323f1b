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

// Package shutdown implements the process-wide stop signal shared by every
// actor of a graph. The coordinator is the only cross-actor mutable cell the
// runtime exposes; actors interact with it solely through Request and the
// read-side accessors.
package shutdown

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// Phase represents the lifecycle of the process-wide shutdown signal.
// Transitions are monotonic; a later phase is never followed by an earlier one
// within a run.
type Phase int32

const (
	// Idle indicates no shutdown request has been made yet.
	Idle Phase = iota
	// Requested indicates at least one actor requested a shutdown but the
	// configured barrier count is not yet met.
	Requested
	// Effective indicates the barrier is met: liveness checks begin returning
	// false for actors whose veto allows it.
	Effective
	// Draining indicates the supervisor is waiting out the grace period for
	// actors still vetoing or mid-iteration.
	Draining
	// Stopped indicates every actor reached completion, or the grace period
	// expired and the stragglers were abandoned.
	Stopped
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case Requested:
		return "Requested"
	case Effective:
		return "Effective"
	case Draining:
		return "Draining"
	case Stopped:
		return "Stopped"
	default:
		return ""
	}
}

// Option is the interface that applies a Coordinator option.
type Option interface {
	// Apply sets the Option value of a Coordinator.
	Apply(coordinator *Coordinator)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(coordinator *Coordinator)

// Apply applies the Coordinator's option
func (f OptionFunc) Apply(coordinator *Coordinator) {
	f(coordinator)
}

// WithBarrier sets the number of distinct shutdown requests that must arrive
// before the signal becomes effective. Values below one are ignored.
func WithBarrier(count uint32) Option {
	return OptionFunc(func(coordinator *Coordinator) {
		if count >= 1 {
			coordinator.barrier = count
		}
	})
}

// Coordinator is the process-wide shutdown signal. Any actor may request a
// shutdown; every actor and the supervisor observe the same monotonic phase.
// All methods are safe for concurrent use.
type Coordinator struct {
	mu       sync.Mutex
	barrier  uint32
	requests *atomic.Uint32
	phase    *atomic.Int32

	effective chan struct{}
	done      chan struct{}
}

// New creates a Coordinator in the Idle phase. Without options the barrier is
// one: the first request makes the signal effective.
func New(opts ...Option) *Coordinator {
	coordinator := &Coordinator{
		barrier:   1,
		requests:  atomic.NewUint32(0),
		phase:     atomic.NewInt32(int32(Idle)),
		effective: make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt.Apply(coordinator)
	}
	return coordinator
}

// Request registers a shutdown request. It returns once the request is durably
// visible to the supervisor and to every actor's liveness check. Requests past
// the barrier are counted but change nothing: once tripped the signal never
// resets within a run.
func (c *Coordinator) Request(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	count := c.requests.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case count >= c.barrier:
		c.advance(Effective)
	default:
		c.advance(Requested)
	}
	return nil
}

// Phase returns the current phase of the signal.
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

// Effective returns true once the barrier has been met.
func (c *Coordinator) Effective() bool {
	return c.Phase() >= Effective
}

// EffectiveCh returns a channel closed when the signal becomes effective.
// Periodic waits select on it to resolve early instead of waiting out their
// full interval.
func (c *Coordinator) EffectiveCh() <-chan struct{} {
	return c.effective
}

// Done returns a channel closed when the coordinator reaches Stopped.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Requests returns the number of shutdown requests registered so far.
func (c *Coordinator) Requests() uint32 {
	return c.requests.Load()
}

// Barrier returns the configured barrier count.
func (c *Coordinator) Barrier() uint32 {
	return c.barrier
}

// BeginDraining moves the signal from Effective to Draining. The supervisor
// calls it when it starts waiting out the grace period.
func (c *Coordinator) BeginDraining() {
	c.mu.Lock()
	c.advance(Draining)
	c.mu.Unlock()
}

// MarkStopped moves the signal to its terminal phase. The supervisor calls it
// once every actor stopped or the stragglers were abandoned.
func (c *Coordinator) MarkStopped() {
	c.mu.Lock()
	c.advance(Stopped)
	c.mu.Unlock()
}

// advance moves the phase forward; regressions are ignored.
// Callers must hold the mutex.
func (c *Coordinator) advance(target Phase) {
	current := Phase(c.phase.Load())
	if target <= current {
		return
	}
	c.phase.Store(int32(target))
	if current < Effective && target >= Effective {
		close(c.effective)
	}
	if target == Stopped {
		close(c.done)
	}
}
