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
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	gerrors "github.com/steadykit/steady/errors"
	"github.com/steadykit/steady/internal/slots"
	"github.com/steadykit/steady/log"
	"github.com/steadykit/steady/shutdown"
	"github.com/steadykit/steady/supervisor"
	"github.com/steadykit/steady/telemetry"
)

// restartInitialDelay is the first backoff step applied between budgeted
// relaunch attempts.
const restartInitialDelay = 100 * time.Millisecond

// Graph is the composition root of the runtime. It owns the registered
// actors, the shared configuration and the shutdown coordinator, launches
// each actor in its chosen isolation unit, recovers faults, and blocks the
// controlling goroutine until a coordinated shutdown completes or times out.
//
// Actors never share mutable state with each other; the configuration is
// read-only and the coordinator is the only shared write path.
type Graph struct {
	mu sync.Mutex

	config       any
	logger       log.Logger
	barrier      uint32
	poolCapacity int
	telemetry    *telemetry.Telemetry

	coordinator *shutdown.Coordinator
	pool        *slots.Pool
	handles     []*handle
	names       mapset.Set[string]

	started *atomic.Bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewGraph creates a Graph bound to the given shared configuration. The
// configuration is handed to every actor by reference and must not be
// mutated after this call.
func NewGraph(config any, opts ...GraphOption) *Graph {
	graph := &Graph{
		config:  config,
		logger:  log.DefaultLogger,
		barrier: 1,
		names:   mapset.NewSet[string](),
		started: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt.Apply(graph)
	}
	graph.coordinator = shutdown.New(shutdown.WithBarrier(graph.barrier))
	graph.pool = slots.New(graph.poolCapacity)
	return graph
}

// Register adds an actor to the graph under the given name. Name uniqueness
// is not enforced; a collision only degrades diagnostics and is logged.
// Registration is rejected once the graph has started.
func (g *Graph) Register(name string, behavior Actor, opts ...SpawnOption) error {
	if behavior == nil {
		return gerrors.ErrBehaviorRequired
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started.Load() {
		return gerrors.ErrGraphAlreadyStarted
	}
	if !g.names.Add(name) {
		g.logger.Warnf("actor name=(%s) registered more than once, diagnostics will be degraded", name)
	}
	g.handles = append(g.handles, newHandle(name, behavior, newSpawnConfig(opts...)))
	return nil
}

// Deregister removes every actor registered under the given name. It is only
// valid before Start.
func (g *Graph) Deregister(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started.Load() {
		return gerrors.ErrGraphAlreadyStarted
	}
	kept := g.handles[:0]
	for _, h := range g.handles {
		if h.name != name {
			kept = append(kept, h)
		}
	}
	g.handles = kept
	g.names.Remove(name)
	return nil
}

// ActorNames returns the names of the registered actors.
func (g *Graph) ActorNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.handles))
	for _, h := range g.handles {
		names = append(names, h.name)
	}
	return names
}

// ActorState reports the run state of the first actor registered under the
// given name.
func (g *Graph) ActorState(name string) (RunState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, h := range g.handles {
		if h.name == name {
			return h.State(), true
		}
	}
	return Registered, false
}

// Restarts returns how many fault-triggered relaunches the named actor has
// gone through.
func (g *Graph) Restarts(name string) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, h := range g.handles {
		if h.name == name {
			return h.restarts.Load()
		}
	}
	return 0
}

// ShutdownPhase returns the current phase of the graph's stop signal.
func (g *Graph) ShutdownPhase() shutdown.Phase {
	return g.coordinator.Phase()
}

// Start launches every registered actor inside its chosen isolation unit.
// It does not block: it returns as soon as the launches are issued.
func (g *Graph) Start(ctx context.Context) error {
	if !g.started.CompareAndSwap(false, true) {
		return gerrors.ErrGraphAlreadyStarted
	}

	g.mu.Lock()
	g.baseCtx, g.cancel = context.WithCancel(ctx)
	handles := make([]*handle, len(g.handles))
	copy(handles, g.handles)
	g.mu.Unlock()

	g.logger.Infof("graph starting %d actor(s)", len(handles))
	for _, h := range handles {
		g.launch(h)
	}
	go g.watchShutdown(handles)
	return nil
}

// RequestShutdown registers a shutdown request on behalf of the caller, the
// same way an actor would from inside its loop. Typical use is mapping
// process signals to a coordinated stop.
func (g *Graph) RequestShutdown(ctx context.Context) error {
	if !g.started.Load() {
		return gerrors.ErrGraphNotStarted
	}
	return g.coordinator.Request(ctx)
}

// BlockUntilStopped suspends the caller until every actor stopped, or until
// grace elapses after the stop signal became effective, whichever comes
// first. It returns nil on a clean coordinated shutdown; when the grace
// period expires with actors still running they are abandoned and a
// ShutdownTimeoutError enumerating their names is returned.
func (g *Graph) BlockUntilStopped(grace time.Duration) error {
	if !g.started.Load() {
		return gerrors.ErrGraphNotStarted
	}
	if grace <= 0 {
		return gerrors.ErrInvalidInterval
	}

	g.mu.Lock()
	handles := make([]*handle, len(g.handles))
	copy(handles, g.handles)
	g.mu.Unlock()

	allDone := make(chan struct{})
	go func() {
		for _, h := range handles {
			<-h.done
		}
		close(allDone)
	}()

	var err error
	select {
	case <-allDone:
		// every actor completed voluntarily
	case <-g.coordinator.EffectiveCh():
		g.coordinator.BeginDraining()
		timer := time.NewTimer(grace)
		select {
		case <-allDone:
			timer.Stop()
		case <-timer.C:
			stragglers := g.stragglers(handles)
			g.logger.Errorf("grace period of %s elapsed, abandoning actors: %v", grace, stragglers)
			err = gerrors.NewShutdownTimeoutError(stragglers)
		}
	}

	g.cancel()
	g.coordinator.MarkStopped()
	if g.telemetry != nil {
		err = multierr.Append(err, g.telemetry.Stop())
	}
	if err == nil {
		g.logger.Info("graph stopped")
	}
	return err
}

// stragglers returns the sorted names of the actors still running.
func (g *Graph) stragglers(handles []*handle) []string {
	set := mapset.NewSet[string]()
	for _, h := range handles {
		if h.State() != Stopped {
			set.Add(h.name)
		}
	}
	names := set.ToSlice()
	sort.Strings(names)
	return names
}

// watchShutdown broadcasts the effective stop signal to every actor so their
// periodic waits resolve early.
func (g *Graph) watchShutdown(handles []*handle) {
	select {
	case <-g.coordinator.EffectiveCh():
		g.logger.Info("shutdown signal effective, asking actors to stop")
		for _, h := range handles {
			h.requestStop()
		}
	case <-g.baseCtx.Done():
	}
}

// launch starts the actor's isolation unit.
func (g *Graph) launch(h *handle) {
	go func() {
		defer close(h.done)
		if h.model == SoloThread {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}
		g.supervise(h)
	}()
}

// supervise runs the actor and applies the one-for-one recovery policy at
// the fault boundary: a faulty run is relaunched from scratch with a fresh
// context, immediately and indefinitely unless the policy bounds it.
func (g *Graph) supervise(h *handle) {
	defer h.setState(Stopped)

	for {
		err := g.runGuarded(h)
		if err == nil {
			return
		}

		g.logger.Errorf("actor=(%s) faulted: %v", h.name, err)
		if h.policy.Directive(err) == supervisor.StopDirective {
			g.logger.Warnf("actor=(%s) stopped by supervision directive", h.name)
			return
		}

		h.restarts.Inc()
		if g.telemetry != nil && h.monitored {
			g.telemetry.RecordRestart(g.baseCtx, h.name)
		}
		if h.stopRequested() {
			return
		}
		if max := h.policy.MaxRetries(); max > 0 {
			if budgetErr := g.relaunchWithBudget(h, max); budgetErr != nil {
				g.logger.Errorf("actor=(%s) %v", h.name, budgetErr)
			}
			return
		}
	}
}

// relaunchWithBudget paces relaunches with backoff until a run completes
// voluntarily or the retry budget is exhausted.
func (g *Graph) relaunchWithBudget(h *handle, budget uint32) error {
	maxDelay := h.policy.Timeout()
	if maxDelay <= 0 {
		maxDelay = time.Second
	}

	retrier := retry.NewRetrier(int(budget), restartInitialDelay, maxDelay)
	err := retrier.RunContext(g.baseCtx, func(context.Context) error {
		if h.stopRequested() {
			return nil
		}
		runErr := g.runGuarded(h)
		if runErr != nil {
			h.restarts.Inc()
			g.logger.Errorf("actor=(%s) faulted: %v", h.name, runErr)
			if g.telemetry != nil && h.monitored {
				g.telemetry.RecordRestart(g.baseCtx, h.name)
			}
		}
		return runErr
	})
	if err != nil {
		return multierr.Append(gerrors.ErrRestartBudgetExceeded, err)
	}
	return nil
}

// runGuarded invokes one run of the actor inside the fault boundary. Panics
// are recovered and surfaced as PanicError values so supervision treats
// unwinding and error returns uniformly.
func (g *Graph) runGuarded(h *handle) (err error) {
	if h.model == Pooled {
		if acquireErr := g.pool.Acquire(g.baseCtx); acquireErr != nil {
			// the graph is tearing down, treat as a voluntary stop
			return nil
		}
		defer g.pool.Release()
	}

	if !h.stopRequested() {
		h.setState(Running)
	}

	ctx := newContext(g, h)
	ctx.logger.Infof("run started (model=%s)", h.model)

	defer func() {
		if r := recover(); r != nil {
			pc, fn, line, _ := runtime.Caller(2)
			switch v := r.(type) {
			case error:
				err = gerrors.NewPanicError(
					fmt.Errorf("%w at %s[%s:%d]", v, runtime.FuncForPC(pc).Name(), fn, line),
				)
			default:
				err = gerrors.NewPanicError(
					fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line),
				)
			}
		}
	}()
	return h.behavior.Run(ctx)
}
