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

// Package heartbeat holds the demo actor: it logs a beat at a fixed rate,
// counts down a beat budget and asks the graph to stop when the budget is
// spent.
package heartbeat

import (
	"time"

	"github.com/steadykit/steady/actor"
	"github.com/steadykit/steady/errors"
)

// Name is the heartbeat actor's registered name.
const Name = "HEARTBEAT"

// Config is the shared configuration of the heartbeat graph. It mirrors the
// command line flags and is handed to every actor through the graph.
type Config struct {
	// RateMS is the number of milliseconds between beats.
	RateMS uint64
	// Beats is the number of beats before the actor requests a graph
	// shutdown.
	Beats uint64
}

// NewConfig returns a Config with the default rate of one beat per second and
// a budget of sixty beats.
func NewConfig() *Config {
	return &Config{
		RateMS: 1000,
		Beats:  60,
	}
}

// Rate returns the beat interval as a duration.
func (c *Config) Rate() time.Duration {
	return time.Duration(c.RateMS) * time.Millisecond
}

// Heartbeat is the demo actor. Its countdown lives in local variables of Run,
// so a restart after a fault begins again from the configured beat budget.
type Heartbeat struct{}

// interface guard
var _ actor.Actor = (*Heartbeat)(nil)

// New creates an instance of the heartbeat actor
func New() *Heartbeat {
	return &Heartbeat{}
}

// Run beats until the budget is spent, then requests a graph shutdown and
// returns once the stop becomes effective. A zero budget requests the
// shutdown before the first wait; the counter never goes below zero.
func (h *Heartbeat) Run(ctx *actor.Context) error {
	config, ok := ctx.Config().(*Config)
	if !ok {
		return errors.ErrInvalidConfig
	}

	rate := config.Rate()
	count := config.Beats

	if count == 0 {
		return ctx.RequestShutdown(ctx.Context())
	}

	for ctx.IsRunning(nil) {
		if !ctx.WaitPeriodic(rate) {
			continue
		}

		// a barrier can keep the graph alive after the budget is spent;
		// the counter stays at zero in that case
		if count == 0 {
			continue
		}

		ctx.Logger().Infof("Heartbeat %d %v", count, rate)
		count--
		if count == 0 {
			if err := ctx.RequestShutdown(ctx.Context()); err != nil {
				return err
			}
		}
	}
	return nil
}
