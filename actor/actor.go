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

// Package actor implements the supervised actor runtime: the actor contract,
// the graph composition root, execution isolation, fault recovery and
// coordinated shutdown.
package actor

// Actor defines the behavioral contract of one independent, restartable unit
// of work.
//
// Run is the sole entry point. It receives an opaque Context granting access
// to the shared configuration, the liveness check, the stop-request call and
// periodic waits. A conforming implementation loops while the liveness check
// is true, performing bounded work per iteration, and returns nil on
// voluntary completion.
//
// When Run returns an error or its execution unit panics, the graph treats
// this as a fault, not a fatal process error: the fault is logged with the
// actor's name and cause, and Run is invoked again from scratch with a fresh
// Context according to the supervision policy. State that must not survive a
// restart belongs in local variables of Run, not on the receiver.
type Actor interface {
	Run(ctx *Context) error
}

// RunFunc is an adapter that allows plain functions to be registered as
// actors.
type RunFunc func(ctx *Context) error

// enforce compilation error
var _ Actor = RunFunc(nil)

// Run invokes the function.
func (f RunFunc) Run(ctx *Context) error {
	return f(ctx)
}
