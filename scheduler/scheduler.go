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

// Package scheduler runs deferred and recurring tasks against a graph,
// typically shutdown deadlines and periodic maintenance that does not deserve
// an actor of its own.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/steadykit/steady/errors"
	"github.com/steadykit/steady/log"
)

// Task is a unit of scheduled work. The context is the scheduler's run
// context; a task returning an error is logged and, for recurring triggers,
// still fires again on the next tick.
type Task func(ctx context.Context) error

// Option represents the scheduler option
// to set custom settings
type Option func(scheduler *Scheduler)

// WithLogger sets the scheduler logger
func WithLogger(logger log.Logger) Option {
	return func(scheduler *Scheduler) {
		scheduler.logger = logger
	}
}

// WithStopTimeout sets how long Stop waits for in-flight tasks to complete.
func WithStopTimeout(timeout time.Duration) Option {
	return func(scheduler *Scheduler) {
		scheduler.stopTimeout = timeout
	}
}

// Scheduler runs tasks on deadlines, fixed intervals or cron expressions.
// All methods are safe for concurrent use.
type Scheduler struct {
	// helps lock concurrent access
	mu sync.Mutex
	// underlying quartz scheduler
	quartzScheduler quartz.Scheduler
	// states whether the quartzScheduler has started or not
	started *atomic.Bool
	// define the logger
	logger log.Logger
	// define the shutdown timeout
	stopTimeout time.Duration
}

// New creates an instance of Scheduler
func New(opts ...Option) *Scheduler {
	// create an instance of quartz scheduler with logger off
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))

	scheduler := &Scheduler{
		mu:              sync.Mutex{},
		started:         atomic.NewBool(false),
		quartzScheduler: quartzScheduler,
		logger:          log.DefaultLogger,
		stopTimeout:     time.Second,
	}

	// set the custom options to override the default values
	for _, opt := range opts {
		opt(scheduler)
	}

	return scheduler
}

// Start starts the scheduler
func (x *Scheduler) Start(ctx context.Context) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.logger.Info("starting tasks scheduler...")
	x.quartzScheduler.Start(ctx)
	x.started.Store(x.quartzScheduler.IsStarted())
	x.logger.Info("tasks scheduler started.:)")
}

// Stop stops the scheduler and waits up to the stop timeout for in-flight
// tasks to complete.
func (x *Scheduler) Stop(ctx context.Context) {
	if !x.started.Load() {
		return
	}

	x.logger.Info("stopping tasks scheduler...")
	x.mu.Lock()
	defer x.mu.Unlock()
	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()
	x.started.Store(x.quartzScheduler.IsStarted())

	ctx, cancel := context.WithTimeout(ctx, x.stopTimeout)
	defer cancel()
	x.quartzScheduler.Wait(ctx)

	x.logger.Info("tasks scheduler stopped...:)")
}

// RunOnce runs the given task once after the given delay.
func (x *Scheduler) RunOnce(task Task, delay time.Duration) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.started.Load() {
		return errors.ErrSchedulerNotStarted
	}

	detail := quartz.NewJobDetail(x.wrapTask(task), quartz.NewJobKey(newJobKey()))
	return x.quartzScheduler.ScheduleJob(detail, quartz.NewRunOnceTrigger(delay))
}

// RunEvery runs the given task repeatedly with the given interval between
// firings.
func (x *Scheduler) RunEvery(task Task, interval time.Duration) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.started.Load() {
		return errors.ErrSchedulerNotStarted
	}

	detail := quartz.NewJobDetail(x.wrapTask(task), quartz.NewJobKey(newJobKey()))
	return x.quartzScheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(interval))
}

// RunWithCron runs the given task on a cron expression evaluated in the given
// location. A nil location means UTC.
func (x *Scheduler) RunWithCron(task Task, cronExpression string, location *time.Location) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.started.Load() {
		return errors.ErrSchedulerNotStarted
	}

	if location == nil {
		location = time.UTC
	}

	trigger, err := quartz.NewCronTriggerWithLoc(cronExpression, location)
	if err != nil {
		return err
	}

	detail := quartz.NewJobDetail(x.wrapTask(task), quartz.NewJobKey(newJobKey()))
	return x.quartzScheduler.ScheduleJob(detail, trigger)
}

// wrapTask adapts a Task into a quartz function job with failure logging.
func (x *Scheduler) wrapTask(task Task) quartz.Job {
	return job.NewFunctionJob[bool](
		func(ctx context.Context) (bool, error) {
			if err := task(ctx); err != nil {
				x.logger.Errorf("scheduled task failed: %v", err)
				return false, err
			}
			return true, nil
		},
	)
}

// newJobKey creates a new job key
func newJobKey() string {
	return uuid.NewString()
}
