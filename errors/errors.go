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

// Package errors defines the error values shared by the runtime packages.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGraphNotStarted is returned when a graph operation requires Start to
	// have been called first.
	ErrGraphNotStarted = errors.New("graph has not started")

	// ErrGraphAlreadyStarted is returned when attempting to start a graph that
	// is already running.
	ErrGraphAlreadyStarted = errors.New("graph has already started")

	// ErrBehaviorRequired is returned when an actor is registered without a
	// behavior.
	ErrBehaviorRequired = errors.New("actor behavior is required")

	// ErrInvalidInterval is returned when a periodic wait or grace period is
	// configured with a duration less than or equal to zero.
	ErrInvalidInterval = errors.New("interval must be greater than zero")

	// ErrShutdownStopped is returned when a shutdown request arrives after the
	// coordinator already reached its terminal phase.
	ErrShutdownStopped = errors.New("shutdown already completed")

	// ErrSchedulerNotStarted is returned when attempting to use the scheduler
	// before it has started.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")

	// ErrRestartBudgetExceeded is returned when a faulty actor exhausted its
	// configured restart retry budget.
	ErrRestartBudgetExceeded = errors.New("restart retry budget exceeded")

	// ErrInvalidConfig is returned when an actor receives a shared
	// configuration of an unexpected type.
	ErrInvalidConfig = errors.New("invalid graph configuration")
)

// PanicError wraps the value recovered from a panicking actor run so the
// fault boundary can treat unwinding and error returns uniformly.
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// ShutdownTimeoutError is returned by BlockUntilStopped when the grace period
// elapsed with actors still running. It enumerates the stragglers by name.
type ShutdownTimeoutError struct {
	stragglers []string
}

var _ error = (*ShutdownTimeoutError)(nil)

// NewShutdownTimeoutError creates an instance of ShutdownTimeoutError from the
// names of the actors that failed to stop in time.
func NewShutdownTimeoutError(stragglers []string) *ShutdownTimeoutError {
	return &ShutdownTimeoutError{stragglers: stragglers}
}

// Error implements the standard error interface
func (e *ShutdownTimeoutError) Error() string {
	return fmt.Sprintf("shutdown timed out waiting for actors: [%s]", strings.Join(e.stragglers, ", "))
}

// Stragglers returns the names of the actors that were still running when the
// grace period elapsed.
func (e *ShutdownTimeoutError) Stragglers() []string {
	return e.stragglers
}

// InternalError defines an error that is explicit to the runtime
type InternalError struct {
	err error
}

// enforce compilation error
var _ error = (*InternalError)(nil)

// NewInternalError returns an instance of InternalError
func NewInternalError(err error) *InternalError {
	return &InternalError{
		err: fmt.Errorf("internal error: %w", err),
	}
}

// Error implements the standard error interface
func (i *InternalError) Error() string {
	return i.err.Error()
}

func (i *InternalError) Unwrap() error {
	return i.err
}

// AnyError defines the any error type
// this is used to represent any error when handling the supervisor directive
type AnyError struct{}

// interface guard
var _ error = (*AnyError)(nil)

// Error implements error.
func (*AnyError) Error() string {
	return "*"
}
