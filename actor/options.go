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
	"github.com/steadykit/steady/log"
	"github.com/steadykit/steady/supervisor"
	"github.com/steadykit/steady/telemetry"
)

// ExecutionModel selects the isolation unit an actor runs in. It is a
// per-actor registration choice, not a compile-time one, so the same behavior
// can run under either model unchanged.
type ExecutionModel int

const (
	// SoloThread runs the actor on its own goroutine locked to a dedicated
	// OS thread. This is the safest model: the actor never shares compute
	// with its siblings.
	SoloThread ExecutionModel = iota
	// Pooled runs the actor on a cooperative slot of the graph's shared
	// bounded pool. A slot is held per run invocation.
	Pooled
)

// String returns the string representation of the execution model
func (m ExecutionModel) String() string {
	switch m {
	case SoloThread:
		return "SoloThread"
	case Pooled:
		return "Pooled"
	default:
		return ""
	}
}

// GraphOption is the interface that applies a Graph option.
type GraphOption interface {
	// Apply sets the GraphOption value of a Graph.
	Apply(graph *Graph)
}

var _ GraphOption = GraphOptionFunc(nil)

// GraphOptionFunc implements the GraphOption interface.
type GraphOptionFunc func(graph *Graph)

// Apply applies the Graph's option
func (f GraphOptionFunc) Apply(graph *Graph) {
	f(graph)
}

// WithLogger sets the graph's logger. All actors share it.
func WithLogger(logger log.Logger) GraphOption {
	return GraphOptionFunc(func(graph *Graph) {
		graph.logger = logger
	})
}

// WithShutdownBarrier sets how many distinct shutdown requests must arrive
// before the stop signal becomes effective. The default is one.
func WithShutdownBarrier(count uint32) GraphOption {
	return GraphOptionFunc(func(graph *Graph) {
		graph.barrier = count
	})
}

// WithPooledSlots sets the capacity of the shared pool backing the Pooled
// execution model. The default is the number of CPUs.
func WithPooledSlots(capacity int) GraphOption {
	return GraphOptionFunc(func(graph *Graph) {
		graph.poolCapacity = capacity
	})
}

// WithTelemetry attaches metric instruments to the graph. Only actors
// registered with WithMonitoring record iteration and restart markers.
func WithTelemetry(telemetry *telemetry.Telemetry) GraphOption {
	return GraphOptionFunc(func(graph *Graph) {
		graph.telemetry = telemetry
	})
}

// spawnConfig carries the per-actor registration settings.
type spawnConfig struct {
	model     ExecutionModel
	monitored bool
	policy    *supervisor.Supervisor
}

func newSpawnConfig(opts ...SpawnOption) *spawnConfig {
	config := &spawnConfig{
		model:  SoloThread,
		policy: supervisor.NewSupervisor(),
	}
	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// SpawnOption is the interface that applies a per-actor registration option.
type SpawnOption interface {
	// Apply sets the SpawnOption value of a spawnConfig.
	Apply(config *spawnConfig)
}

var _ SpawnOption = SpawnOptionFunc(nil)

// SpawnOptionFunc implements the SpawnOption interface.
type SpawnOptionFunc func(config *spawnConfig)

// Apply applies the spawnConfig's option
func (f SpawnOptionFunc) Apply(config *spawnConfig) {
	f(config)
}

// WithExecutionModel selects the actor's isolation unit. The default is
// SoloThread.
func WithExecutionModel(model ExecutionModel) SpawnOption {
	return SpawnOptionFunc(func(config *spawnConfig) {
		config.model = model
	})
}

// WithMonitoring enables iteration and restart metrics for the actor when the
// graph carries telemetry.
func WithMonitoring() SpawnOption {
	return SpawnOptionFunc(func(config *spawnConfig) {
		config.monitored = true
	})
}

// WithSupervisor sets the actor's supervision policy. The default restarts on
// any fault, immediately and indefinitely.
func WithSupervisor(policy *supervisor.Supervisor) SpawnOption {
	return SpawnOptionFunc(func(config *spawnConfig) {
		if policy != nil {
			config.policy = policy
		}
	})
}
