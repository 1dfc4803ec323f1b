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

// Package ticker provides the drift-free periodic wait used by actor loops.
package ticker

import (
	"time"
)

// Ticker schedules periodic deadlines without cumulative drift: each deadline
// is the previous deadline plus the interval, never "now plus interval".
// A Ticker belongs to a single actor loop and is not safe for concurrent use.
type Ticker struct {
	interval time.Duration
	deadline time.Time
}

// New creates a Ticker that fires every interval.
func New(interval time.Duration) *Ticker {
	if interval <= 0 {
		panic("interval must be greater than zero")
	}
	return &Ticker{interval: interval}
}

// Interval returns the configured interval.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Wait suspends the caller until the next deadline elapses or cancel fires,
// whichever comes first. It returns true when the deadline fired and false
// when the wait was cut short. Waiting is cooperative; there is no busy loop.
func (t *Ticker) Wait(cancel <-chan struct{}) bool {
	now := time.Now()
	switch {
	case t.deadline.IsZero():
		t.deadline = now.Add(t.interval)
	default:
		t.deadline = t.deadline.Add(t.interval)
		// resync when the loop fell more than one full interval behind,
		// otherwise a slow iteration would be followed by a burst of fires
		if t.deadline.Before(now.Add(-t.interval)) {
			t.deadline = now
		}
	}

	wait := time.Until(t.deadline)
	if wait <= 0 {
		return true
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-cancel:
		return false
	}
}
