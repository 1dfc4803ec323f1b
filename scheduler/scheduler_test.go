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

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/steadykit/steady/errors"
	"github.com/steadykit/steady/log"
)

func TestSchedulerNotStarted(t *testing.T) {
	scheduler := New(WithLogger(log.DiscardLogger))
	noop := func(context.Context) error { return nil }

	assert.ErrorIs(t, scheduler.RunOnce(noop, time.Millisecond), errors.ErrSchedulerNotStarted)
	assert.ErrorIs(t, scheduler.RunEvery(noop, time.Millisecond), errors.ErrSchedulerNotStarted)
	assert.ErrorIs(t, scheduler.RunWithCron(noop, "* * * * * *", nil), errors.ErrSchedulerNotStarted)
}

func TestRunOnce(t *testing.T) {
	ctx := context.TODO()
	scheduler := New(WithLogger(log.DiscardLogger))
	scheduler.Start(ctx)
	defer scheduler.Stop(ctx)

	fired := make(chan struct{})
	err := scheduler.RunOnce(func(context.Context) error {
		close(fired)
		return nil
	}, 10*time.Millisecond)
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
}

func TestRunEvery(t *testing.T) {
	ctx := context.TODO()
	scheduler := New(WithLogger(log.DiscardLogger))
	scheduler.Start(ctx)
	defer scheduler.Stop(ctx)

	count := atomic.NewInt32(0)
	err := scheduler.RunEvery(func(context.Context) error {
		count.Inc()
		return nil
	}, 10*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return count.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestRunWithCron(t *testing.T) {
	ctx := context.TODO()
	scheduler := New(WithLogger(log.DiscardLogger), WithStopTimeout(100*time.Millisecond))
	scheduler.Start(ctx)
	defer scheduler.Stop(ctx)

	fired := atomic.NewBool(false)
	err := scheduler.RunWithCron(func(context.Context) error {
		fired.Store(true)
		return nil
	}, "* * * * * *", nil)
	require.NoError(t, err)

	assert.Eventually(t, fired.Load, 3*time.Second, 10*time.Millisecond)
}

func TestRunWithCronInvalidExpression(t *testing.T) {
	ctx := context.TODO()
	scheduler := New(WithLogger(log.DiscardLogger))
	scheduler.Start(ctx)
	defer scheduler.Stop(ctx)

	err := scheduler.RunWithCron(func(context.Context) error { return nil }, "not a cron", nil)
	assert.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	ctx := context.TODO()
	scheduler := New(WithLogger(log.DiscardLogger))
	scheduler.Start(ctx)
	scheduler.Stop(ctx)
	scheduler.Stop(ctx)
}
