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

package actor

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/steadykit/steady/supervisor"
)

// RunState represents the lifecycle of a registered actor as observed by the
// graph.
type RunState int32

const (
	// Registered indicates the actor is known to the graph but not launched.
	Registered RunState = iota
	// Running indicates the actor's run loop is executing.
	Running
	// StopRequested indicates the graph asked the actor to stop; the actor
	// may still be finishing in-flight work.
	StopRequested
	// Stopped indicates the actor's run loop exited and will not be
	// relaunched.
	Stopped
)

// String returns the string representation of the run state
func (s RunState) String() string {
	switch s {
	case Registered:
		return "Registered"
	case Running:
		return "Running"
	case StopRequested:
		return "StopRequested"
	case Stopped:
		return "Stopped"
	default:
		return ""
	}
}

// handle is the graph's bookkeeping record for one registered actor. It is
// owned exclusively by the graph; actors observe it only through their
// Context.
type handle struct {
	name      string
	behavior  Actor
	model     ExecutionModel
	monitored bool
	policy    *supervisor.Supervisor

	state    *atomic.Int32
	restarts *atomic.Uint32

	// stopCh is closed when the graph asks this actor to stop, so periodic
	// waits resolve early
	stopCh   chan struct{}
	stopOnce sync.Once

	// done is closed when the actor's execution unit exits permanently
	done chan struct{}
}

func newHandle(name string, behavior Actor, config *spawnConfig) *handle {
	return &handle{
		name:      name,
		behavior:  behavior,
		model:     config.model,
		monitored: config.monitored,
		policy:    config.policy,
		state:     atomic.NewInt32(int32(Registered)),
		restarts:  atomic.NewUint32(0),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// State returns the actor's current run state.
func (h *handle) State() RunState {
	return RunState(h.state.Load())
}

func (h *handle) setState(state RunState) {
	h.state.Store(int32(state))
}

// requestStop marks the actor stop-requested and wakes its periodic wait.
// Stopped actors are left untouched.
func (h *handle) requestStop() {
	h.stopOnce.Do(func() {
		h.state.CompareAndSwap(int32(Running), int32(StopRequested))
		h.state.CompareAndSwap(int32(Registered), int32(StopRequested))
		close(h.stopCh)
	})
}

// stopRequested reports whether the graph asked this actor to stop.
func (h *handle) stopRequested() bool {
	select {
	case <-h.stopCh:
		return true
	default:
		return false
	}
}
