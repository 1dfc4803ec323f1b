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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steadykit/steady/actor"
	"github.com/steadykit/steady/heartbeat"
	"github.com/steadykit/steady/log"
	"github.com/steadykit/steady/scheduler"
	"github.com/steadykit/steady/telemetry"
)

// shutdownGrace is how long the graph waits for actors to drain once the stop
// signal becomes effective.
const shutdownGrace = time.Second

func main() {
	config := heartbeat.NewConfig()
	var deadline time.Duration

	rootCmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Run the heartbeat graph until its beat budget is spent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), config, deadline)
		},
	}

	rootCmd.Flags().Uint64VarP(&config.RateMS, "rate", "r", config.RateMS, "milliseconds between heartbeats")
	rootCmd.Flags().Uint64VarP(&config.Beats, "beats", "b", config.Beats, "number of heartbeats before shutdown")
	rootCmd.Flags().DurationVar(&deadline, "deadline", 0, "request a shutdown after this duration regardless of remaining beats (0 disables)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, config *heartbeat.Config, deadline time.Duration) error {
	logger := log.New(log.InfoLevel, os.Stdout)

	metrics, err := telemetry.New()
	if err != nil {
		return err
	}

	graph := actor.NewGraph(config,
		actor.WithLogger(logger),
		actor.WithTelemetry(metrics))

	if err := graph.Register(heartbeat.Name, heartbeat.New(),
		actor.WithExecutionModel(actor.SoloThread),
		actor.WithMonitoring()); err != nil {
		return err
	}

	if err := graph.Start(ctx); err != nil {
		return err
	}

	if deadline > 0 {
		tasks := scheduler.New(scheduler.WithLogger(logger))
		tasks.Start(ctx)
		defer tasks.Stop(ctx)
		err := tasks.RunOnce(func(taskCtx context.Context) error {
			logger.Infof("deadline of %v reached, requesting graph shutdown", deadline)
			return graph.RequestShutdown(taskCtx)
		}, deadline)
		if err != nil {
			return err
		}
	}

	// forward termination signals as an ordinary shutdown request
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		sig, ok := <-sigs
		if !ok {
			return
		}
		logger.Infof("received signal %s, requesting graph shutdown", sig)
		if err := graph.RequestShutdown(ctx); err != nil {
			logger.Errorf("shutdown request failed: %v", err)
		}
	}()

	if err := graph.BlockUntilStopped(shutdownGrace); err != nil {
		logger.Errorf("graph did not stop cleanly: %v", err)
		return err
	}

	logger.Info("graph stopped cleanly")
	return nil
}
