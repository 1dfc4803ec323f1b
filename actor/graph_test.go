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
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	gerrors "github.com/steadykit/steady/errors"
	"github.com/steadykit/steady/log"
	"github.com/steadykit/steady/shutdown"
	"github.com/steadykit/steady/supervisor"
)

func TestRegister(t *testing.T) {
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	require.NoError(t, graph.Register("HEARTBEAT", RunFunc(func(*Context) error { return nil })))
	require.ErrorIs(t, graph.Register("NOBODY", nil), gerrors.ErrBehaviorRequired)
	assert.Equal(t, []string{"HEARTBEAT"}, graph.ActorNames())

	state, ok := graph.ActorState("HEARTBEAT")
	require.True(t, ok)
	assert.Equal(t, Registered, state)

	_, ok = graph.ActorState("UNKNOWN")
	assert.False(t, ok)
}

func TestRegisterDuplicateNameIsAllowed(t *testing.T) {
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	require.NoError(t, graph.Register("TWIN", RunFunc(func(*Context) error { return nil })))
	require.NoError(t, graph.Register("TWIN", RunFunc(func(*Context) error { return nil })))
	assert.Equal(t, []string{"TWIN", "TWIN"}, graph.ActorNames())
}

func TestDeregister(t *testing.T) {
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	require.NoError(t, graph.Register("HEARTBEAT", RunFunc(func(*Context) error { return nil })))
	require.NoError(t, graph.Deregister("HEARTBEAT"))
	assert.Empty(t, graph.ActorNames())
}

func TestRegistrationRejectedAfterStart(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	require.NoError(t, graph.Register("STOPPER", newShutdownRequester()))
	require.NoError(t, graph.Start(ctx))

	require.ErrorIs(t, graph.Register("LATE", RunFunc(func(*Context) error { return nil })), gerrors.ErrGraphAlreadyStarted)
	require.ErrorIs(t, graph.Deregister("STOPPER"), gerrors.ErrGraphAlreadyStarted)
	require.ErrorIs(t, graph.Start(ctx), gerrors.ErrGraphAlreadyStarted)

	require.NoError(t, graph.BlockUntilStopped(time.Second))
}

func TestBlockUntilStoppedValidation(t *testing.T) {
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))
	require.ErrorIs(t, graph.BlockUntilStopped(time.Second), gerrors.ErrGraphNotStarted)
	require.ErrorIs(t, graph.RequestShutdown(context.TODO()), gerrors.ErrGraphNotStarted)

	require.NoError(t, graph.Start(context.TODO()))
	require.ErrorIs(t, graph.BlockUntilStopped(0), gerrors.ErrInvalidInterval)
	require.NoError(t, graph.RequestShutdown(context.TODO()))
	require.NoError(t, graph.BlockUntilStopped(time.Second))
}

func TestCleanCoordinatedShutdown(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	iterations := atomic.NewInt32(0)
	require.NoError(t, graph.Register("HEARTBEAT", RunFunc(func(c *Context) error {
		count := 3
		for c.IsRunning(nil) {
			if !c.WaitPeriodic(5 * time.Millisecond) {
				continue
			}
			iterations.Inc()
			count--
			if count == 0 {
				if err := c.RequestShutdown(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})))

	require.NoError(t, graph.Start(ctx))
	require.NoError(t, graph.BlockUntilStopped(time.Second))

	assert.EqualValues(t, 3, iterations.Load())
	state, ok := graph.ActorState("HEARTBEAT")
	require.True(t, ok)
	assert.Equal(t, Stopped, state)
	assert.Equal(t, shutdown.Stopped, graph.ShutdownPhase())
}

func TestStragglerIsReported(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	// SLEEPER never checks the liveness condition, so only a forced abandon
	// can end it
	require.NoError(t, graph.Register("SLEEPER", RunFunc(func(*Context) error {
		time.Sleep(2 * time.Second)
		return nil
	})))
	require.NoError(t, graph.Register("TRIGGER", newShutdownRequester()))

	require.NoError(t, graph.Start(ctx))
	err := graph.BlockUntilStopped(50 * time.Millisecond)

	var timeout *gerrors.ShutdownTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, []string{"SLEEPER"}, timeout.Stragglers())
	assert.Equal(t, shutdown.Stopped, graph.ShutdownPhase())
}

func TestPanicTriggersRestartWithFreshState(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	first := atomic.NewBool(true)
	runIDs := make(chan string, 2)
	require.NoError(t, graph.Register("FLAKY", RunFunc(func(c *Context) error {
		runIDs <- c.RunID()
		if first.CompareAndSwap(true, false) {
			panic("boom")
		}
		return c.RequestShutdown(ctx)
	})))

	require.NoError(t, graph.Start(ctx))
	require.NoError(t, graph.BlockUntilStopped(time.Second))

	assert.EqualValues(t, 1, graph.Restarts("FLAKY"))
	firstRun, secondRun := <-runIDs, <-runIDs
	assert.NotEqual(t, firstRun, secondRun)
}

func TestErrorReturnTriggersRestart(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	attempts := atomic.NewInt32(0)
	require.NoError(t, graph.Register("FLAKY", RunFunc(func(c *Context) error {
		if attempts.Inc() < 3 {
			return stderrors.New("transient failure")
		}
		return c.RequestShutdown(ctx)
	})))

	require.NoError(t, graph.Start(ctx))
	require.NoError(t, graph.BlockUntilStopped(time.Second))

	assert.EqualValues(t, 3, attempts.Load())
	assert.EqualValues(t, 2, graph.Restarts("FLAKY"))
}

func TestStopDirectiveEndsActor(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	policy := supervisor.NewSupervisor(supervisor.WithAnyErrorDirective(supervisor.StopDirective))
	attempts := atomic.NewInt32(0)
	require.NoError(t, graph.Register("FATAL", RunFunc(func(*Context) error {
		attempts.Inc()
		return stderrors.New("unrecoverable")
	}), WithSupervisor(policy)))

	require.NoError(t, graph.Start(ctx))
	// the only actor stops voluntarily from the graph's point of view, no
	// shutdown request is ever made
	require.NoError(t, graph.BlockUntilStopped(time.Second))

	assert.EqualValues(t, 1, attempts.Load())
	assert.Zero(t, graph.Restarts("FATAL"))
	state, ok := graph.ActorState("FATAL")
	require.True(t, ok)
	assert.Equal(t, Stopped, state)
}

func TestRestartBudgetIsEnforced(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	policy := supervisor.NewSupervisor(supervisor.WithRetry(2, 200*time.Millisecond))
	attempts := atomic.NewInt32(0)
	require.NoError(t, graph.Register("CRASHLOOP", RunFunc(func(*Context) error {
		attempts.Inc()
		return stderrors.New("always failing")
	}), WithSupervisor(policy)))

	require.NoError(t, graph.Start(ctx))
	require.NoError(t, graph.BlockUntilStopped(5*time.Second))

	// one unbudgeted run plus two budgeted relaunch attempts
	assert.EqualValues(t, 3, attempts.Load())
	assert.EqualValues(t, 3, graph.Restarts("CRASHLOOP"))
	state, ok := graph.ActorState("CRASHLOOP")
	require.True(t, ok)
	assert.Equal(t, Stopped, state)
}

func TestShutdownBarrier(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger), WithShutdownBarrier(2))

	require.NoError(t, graph.Register("FIRST", newShutdownRequester()))
	require.NoError(t, graph.Register("SECOND", RunFunc(func(c *Context) error {
		// request only after a few beats so the barrier holds for a while
		for i := 0; i < 3; i++ {
			c.WaitPeriodic(5 * time.Millisecond)
		}
		return c.RequestShutdown(ctx)
	})))

	require.NoError(t, graph.Start(ctx))
	require.NoError(t, graph.BlockUntilStopped(time.Second))
	assert.Equal(t, shutdown.Stopped, graph.ShutdownPhase())
	assert.EqualValues(t, 2, graph.coordinator.Requests())
}

func TestVetoDelaysStop(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger))

	vetoing := atomic.NewBool(true)
	require.NoError(t, graph.Register("VETOER", RunFunc(func(c *Context) error {
		for c.IsRunning(vetoing.Load) {
			time.Sleep(2 * time.Millisecond)
		}
		return nil
	})))
	require.NoError(t, graph.Register("TRIGGER", newShutdownRequester()))

	require.NoError(t, graph.Start(ctx))
	go func() {
		time.Sleep(50 * time.Millisecond)
		vetoing.Store(false)
	}()

	start := time.Now()
	require.NoError(t, graph.BlockUntilStopped(time.Second))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPooledExecutionModel(t *testing.T) {
	ctx := context.TODO()
	graph := NewGraph(nil, WithLogger(log.DiscardLogger), WithPooledSlots(1))

	// with a single slot the two pooled actors run their invocations
	// sequentially
	running := atomic.NewInt32(0)
	overlapped := atomic.NewBool(false)
	work := RunFunc(func(c *Context) error {
		if running.Inc() > 1 {
			overlapped.Store(true)
		}
		defer running.Dec()
		c.WaitPeriodic(5 * time.Millisecond)
		return nil
	})

	require.NoError(t, graph.Register("POOLED-1", work, WithExecutionModel(Pooled)))
	require.NoError(t, graph.Register("POOLED-2", work, WithExecutionModel(Pooled)))

	require.NoError(t, graph.Start(ctx))
	require.NoError(t, graph.BlockUntilStopped(time.Second))
	assert.False(t, overlapped.Load())
}

func TestExecutionModelString(t *testing.T) {
	assert.Equal(t, "SoloThread", SoloThread.String())
	assert.Equal(t, "Pooled", Pooled.String())
	assert.Equal(t, "", ExecutionModel(42).String())
}

func TestRunStateString(t *testing.T) {
	assert.Equal(t, "Registered", Registered.String())
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "StopRequested", StopRequested.String())
	assert.Equal(t, "Stopped", Stopped.String())
	assert.Equal(t, "", RunState(42).String())
}

// newShutdownRequester returns an actor that immediately requests a graph
// shutdown and completes.
func newShutdownRequester() RunFunc {
	return func(c *Context) error {
		return c.RequestShutdown(context.TODO())
	}
}
