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
	"time"

	"github.com/google/uuid"

	"github.com/steadykit/steady/internal/ticker"
	"github.com/steadykit/steady/log"
	"github.com/steadykit/steady/shutdown"
	"github.com/steadykit/steady/telemetry"
)

// Context is the opaque handle an actor receives for the duration of one run
// invocation. It grants access to the shared configuration, the liveness
// check, periodic waits and the stop-request call. A Context belongs to a
// single run and is not shared across goroutines; a restart produces a fresh
// one with a new run ID.
type Context struct {
	baseCtx     context.Context
	name        string
	runID       string
	config      any
	logger      log.Logger
	coordinator *shutdown.Coordinator
	handle      *handle
	telemetry   *telemetry.Telemetry

	ticker *ticker.Ticker
}

func newContext(graph *Graph, h *handle) *Context {
	runID := uuid.NewString()
	ctx := &Context{
		baseCtx:     graph.baseCtx,
		name:        h.name,
		runID:       runID,
		config:      graph.config,
		coordinator: graph.coordinator,
		handle:      h,
	}
	ctx.logger = graph.logger.With("actor", h.name, "run_id", runID)
	if h.monitored {
		ctx.telemetry = graph.telemetry
	}
	return ctx
}

// Name returns the actor's registered name.
func (c *Context) Name() string {
	return c.name
}

// RunID identifies this run invocation. A restarted actor gets a new one, so
// restarts are observable in logs and metrics.
func (c *Context) RunID() string {
	return c.runID
}

// Config returns the graph's shared configuration. It is identical for every
// actor of a run and must be treated as read-only.
func (c *Context) Config() any {
	return c.config
}

// Logger returns the actor's logger, scoped with its name and run ID.
func (c *Context) Logger() log.Logger {
	return c.logger
}

// Context returns the base context the graph was started with.
func (c *Context) Context() context.Context {
	return c.baseCtx
}

// IsRunning is the actor loop condition. It returns false only when a stop
// has been requested and the actor's veto returns false; a nil veto never
// delays a stop. The veto must be side-effect free and idempotent: it may be
// evaluated many times per iteration.
func (c *Context) IsRunning(veto func() bool) bool {
	if !c.coordinator.Effective() && !c.handle.stopRequested() {
		return true
	}
	return veto != nil && veto()
}

// WaitPeriodic suspends the actor until interval elapses or a stop is
// requested, whichever comes first. It returns true when the interval
// elapsed. Deadlines accumulate from the previous one, so cumulative drift
// does not compound across iterations.
func (c *Context) WaitPeriodic(interval time.Duration) bool {
	if c.ticker == nil || c.ticker.Interval() != interval {
		c.ticker = ticker.New(interval)
	}
	fired := c.ticker.Wait(c.handle.stopCh)
	if fired && c.telemetry != nil {
		c.telemetry.RecordIteration(c.baseCtx, c.name)
	}
	return fired
}

// RequestShutdown asks the whole graph to stop. It returns once the request
// is durably registered with the coordinator; if a barrier is configured the
// signal only becomes effective after that many distinct requests.
func (c *Context) RequestShutdown(ctx context.Context) error {
	c.logger.Info("requesting graph shutdown")
	return c.coordinator.Request(ctx)
}
