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

package heartbeat

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/steadykit/steady/actor"
	"github.com/steadykit/steady/log"
	"github.com/steadykit/steady/supervisor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultConfig(t *testing.T) {
	config := NewConfig()
	assert.EqualValues(t, 1000, config.RateMS)
	assert.EqualValues(t, 60, config.Beats)
	assert.Equal(t, time.Second, config.Rate())
}

// beatMessages returns the heartbeat log lines captured in buffer, in order.
func beatMessages(t *testing.T, buffer *bytes.Buffer) []string {
	t.Helper()
	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var fields map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &fields))
		msg, ok := fields["msg"].(string)
		if ok && strings.HasPrefix(msg, "Heartbeat ") {
			messages = append(messages, msg)
		}
	}
	return messages
}

func TestCountdownAndShutdown(t *testing.T) {
	ctx := context.TODO()
	buffer := new(bytes.Buffer)
	config := &Config{RateMS: 10, Beats: 3}

	graph := actor.NewGraph(config, actor.WithLogger(log.New(log.InfoLevel, buffer)))
	require.NoError(t, graph.Register(Name, New()))
	require.NoError(t, graph.Start(ctx))
	require.NoError(t, graph.BlockUntilStopped(time.Second))

	messages := beatMessages(t, buffer)
	require.Len(t, messages, 3)
	assert.Equal(t, "Heartbeat 3 10ms", messages[0])
	assert.Equal(t, "Heartbeat 2 10ms", messages[1])
	assert.Equal(t, "Heartbeat 1 10ms", messages[2])
}

func TestZeroBeatsStopsBeforeFirstBeat(t *testing.T) {
	ctx := context.TODO()
	buffer := new(bytes.Buffer)
	config := &Config{RateMS: 10, Beats: 0}

	graph := actor.NewGraph(config, actor.WithLogger(log.New(log.InfoLevel, buffer)))
	require.NoError(t, graph.Register(Name, New()))

	start := time.Now()
	require.NoError(t, graph.Start(ctx))
	require.NoError(t, graph.BlockUntilStopped(time.Second))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Empty(t, beatMessages(t, buffer))
}

func TestWrongConfigTypeFailsTheActor(t *testing.T) {
	ctx := context.TODO()
	graph := actor.NewGraph("not a heartbeat config", actor.WithLogger(log.DiscardLogger))

	policy := supervisor.NewSupervisor(supervisor.WithAnyErrorDirective(supervisor.StopDirective))
	require.NoError(t, graph.Register(Name, New(), actor.WithSupervisor(policy)))
	require.NoError(t, graph.Start(ctx))

	// the actor stops immediately; the graph drains once all actors are done
	require.NoError(t, graph.BlockUntilStopped(time.Second))
	state, ok := graph.ActorState(Name)
	require.True(t, ok)
	assert.Equal(t, actor.Stopped, state)
	assert.EqualValues(t, 0, graph.Restarts(Name))
}
