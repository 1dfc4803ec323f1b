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

// Package supervisor defines the one-for-one recovery policy applied when an
// actor's run returns an error or panics. The policy maps error types to
// directives and optionally bounds restarts with a retry budget; the graph
// enforces it at the fault boundary.
package supervisor

import (
	"reflect"
	"sync"
	"time"

	"github.com/steadykit/steady/errors"
)

// Directive represents the action taken when an actor's run faults.
type Directive int

const (
	// RestartDirective relaunches the faulty actor's run from scratch with a
	// fresh state, preserving the shared configuration.
	RestartDirective Directive = iota

	// StopDirective marks the faulty actor stopped instead of relaunching it.
	// Use it for faults deemed irrecoverable.
	StopDirective
)

// String returns the string representation of the directive
func (d Directive) String() string {
	switch d {
	case RestartDirective:
		return "Restart"
	case StopDirective:
		return "Stop"
	default:
		return ""
	}
}

// Option defines the various options to apply to a given Supervisor
type Option func(*Supervisor)

// WithDirective sets the mapping between an error type and a directive
func WithDirective(err error, directive Directive) Option {
	return func(s *Supervisor) {
		s.mu.Lock()
		s.directives[errorType(err)] = directive
		s.mu.Unlock()
	}
}

// WithAnyErrorDirective sets the directive to apply to any error. It overrides
// every error-specific directive.
func WithAnyErrorDirective(directive Directive) Option {
	return func(s *Supervisor) {
		s.mu.Lock()
		s.directives[errorType(new(errors.AnyError))] = directive
		s.mu.Unlock()
	}
}

// WithRetry bounds restarts for an actor when using the RestartDirective.
//
// Parameters:
//   - maxRetries: the number of relaunch attempts before the actor is stopped
//     and reported failed.
//   - timeout: the upper bound of the backoff applied between attempts.
//
// Without WithRetry the default matches the runtime's origin semantics:
// immediate, indefinite restarts.
func WithRetry(maxRetries uint32, timeout time.Duration) Option {
	return func(s *Supervisor) {
		s.mu.Lock()
		s.maxRetries = maxRetries
		s.timeout = timeout
		s.mu.Unlock()
	}
}

// DirectiveRule describes a directive rule keyed by error type.
type DirectiveRule struct {
	// ErrorType is the concrete Go error type name (reflect.Type.String()).
	ErrorType string
	// Directive is the directive to apply for ErrorType.
	Directive Directive
}

// Supervisor defines how the graph reacts when an actor's run faults.
//
// Defaults:
//   - Directives: every fault restarts the actor (including PanicError).
//   - Retries: 0, meaning unbounded immediate restarts.
//
// Rules are keyed by the error's concrete type name. A catch-all rule set via
// WithAnyErrorDirective overrides error-specific directives.
//
// Supervisor methods are safe for concurrent use.
type Supervisor struct {
	mu sync.Mutex
	// Specifies the maximum number of relaunch attempts per fault streak.
	// Zero means unbounded.
	maxRetries uint32
	// Specifies the upper bound of the backoff between attempts
	timeout time.Duration

	directives map[string]Directive
}

// NewSupervisor creates a supervision policy. Without options every fault
// restarts the actor immediately and indefinitely.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{
		directives: make(map[string]Directive),
		maxRetries: 0,
		timeout:    -1,
	}

	for _, opt := range opts {
		opt(s)
	}

	// the catch-all rule overrides all error-specific rules
	if directive, ok := s.directives[errorType(new(errors.AnyError))]; ok {
		s.directives = map[string]Directive{
			errorType(new(errors.AnyError)): directive,
		}
	}

	return s
}

// Directive resolves the directive for err: the rule for its concrete type
// wins, then the catch-all rule, then the restart default.
func (s *Supervisor) Directive(err error) Directive {
	s.mu.Lock()
	defer s.mu.Unlock()
	if directive, ok := s.directives[errorType(err)]; ok {
		return directive
	}
	if directive, ok := s.directives[errorType(new(errors.AnyError))]; ok {
		return directive
	}
	return RestartDirective
}

// MaxRetries returns the relaunch budget used with RestartDirective.
// Zero means unbounded.
func (s *Supervisor) MaxRetries() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxRetries
}

// Timeout returns the backoff upper bound used with RestartDirective.
func (s *Supervisor) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// Rules returns a snapshot of the directive rules currently configured.
// The returned slice is a copy; ordering is not guaranteed.
func (s *Supervisor) Rules() []DirectiveRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.directives) == 0 {
		return nil
	}
	rules := make([]DirectiveRule, 0, len(s.directives))
	for errType, directive := range s.directives {
		rules = append(rules, DirectiveRule{
			ErrorType: errType,
			Directive: directive,
		})
	}
	return rules
}

// errorType returns the string representation of an error's type using reflection
func errorType(err error) string {
	if err == nil {
		return "nil"
	}

	rtype := reflect.TypeOf(err)
	if rtype.Kind() == reflect.Pointer {
		rtype = rtype.Elem()
	}

	return rtype.String()
}
