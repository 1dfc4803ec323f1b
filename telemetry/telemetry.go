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

// Package telemetry exposes the runtime's observability hooks. Actors opt in
// per registration; the graph records iteration and restart markers, and a
// process-wide mCPU gauge (1024 = one full core) tracks CPU utilization.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/steadykit/steady"

	iterationsCounterName = "actor_iterations_total"
	restartsCounterName   = "actor_restarts_total"
	mcpuGaugeName         = "process_mcpu"
)

// Option is the interface that applies a Telemetry option.
type Option interface {
	// Apply sets the Option value of a Telemetry.
	Apply(telemetry *Telemetry)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(telemetry *Telemetry)

// Apply applies the Telemetry's option
func (f OptionFunc) Apply(telemetry *Telemetry) {
	f(telemetry)
}

// WithMeterProvider sets the meter provider. Without it the global otel meter
// provider is used.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(telemetry *Telemetry) {
		telemetry.meterProvider = provider
	})
}

// Telemetry holds the runtime's metric instruments. A single instance is
// shared by every monitored actor of a graph; all methods are safe for
// concurrent use.
type Telemetry struct {
	meterProvider metric.MeterProvider
	meter         metric.Meter

	iterations metric.Int64Counter
	restarts   metric.Int64Counter
	mcpu       metric.Int64ObservableGauge

	registration metric.Registration
	proc         *process.Process
}

// New creates a Telemetry instance and registers its instruments.
func New(opts ...Option) (*Telemetry, error) {
	telemetry := &Telemetry{
		meterProvider: otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt.Apply(telemetry)
	}

	telemetry.meter = telemetry.meterProvider.Meter(instrumentationName)

	var err error
	if telemetry.iterations, err = telemetry.meter.Int64Counter(
		iterationsCounterName,
		metric.WithDescription("The total number of loop iterations by the actor"),
	); err != nil {
		return nil, fmt.Errorf("failed to create iterations instrument: %w", err)
	}

	if telemetry.restarts, err = telemetry.meter.Int64Counter(
		restartsCounterName,
		metric.WithDescription("The total number of fault-triggered restarts by the actor"),
	); err != nil {
		return nil, fmt.Errorf("failed to create restarts instrument: %w", err)
	}

	if telemetry.mcpu, err = telemetry.meter.Int64ObservableGauge(
		mcpuGaugeName,
		metric.WithDescription("Process CPU utilization in milli-CPU units (1024 = 1 core)"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcpu instrument: %w", err)
	}

	if telemetry.proc, err = process.NewProcess(int32(os.Getpid())); err != nil {
		return nil, fmt.Errorf("failed to observe own process: %w", err)
	}
	// prime the delta so the first observation is meaningful
	_, _ = telemetry.proc.Percent(0)

	telemetry.registration, err = telemetry.meter.RegisterCallback(
		func(_ context.Context, observer metric.Observer) error {
			percent, err := telemetry.proc.Percent(0)
			if err != nil {
				return err
			}
			observer.ObserveInt64(telemetry.mcpu, int64(percent*1024/100))
			return nil
		},
		telemetry.mcpu,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register mcpu callback: %w", err)
	}

	return telemetry, nil
}

// RecordIteration marks one completed loop iteration for the named actor.
func (t *Telemetry) RecordIteration(ctx context.Context, actorName string) {
	t.iterations.Add(ctx, 1, metric.WithAttributes(attribute.String("actor", actorName)))
}

// RecordRestart marks one fault-triggered restart for the named actor.
func (t *Telemetry) RecordRestart(ctx context.Context, actorName string) {
	t.restarts.Add(ctx, 1, metric.WithAttributes(attribute.String("actor", actorName)))
}

// Stop unregisters the mCPU callback.
func (t *Telemetry) Stop() error {
	if t.registration == nil {
		return nil
	}
	return t.registration.Unregister()
}
