package task

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJob(t *testing.T) {
	s := NewScheduler(golog.NewTestLogger(t))
	var n atomic.Int32
	require.NoError(t, s.Every("count", 5*time.Millisecond, func() { n.Add(1) }))

	s.Start()
	assert.True(t, s.Running())
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()
	assert.False(t, s.Running())

	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())
	assert.GreaterOrEqual(t, s.Runs("count"), 3)
}

func TestSchedulerRejectsBadJobs(t *testing.T) {
	s := NewScheduler(golog.NewTestLogger(t))
	assert.Error(t, s.Every("zero", 0, func() {}))

	require.NoError(t, s.Every("dup", time.Second, func() {}))
	assert.Error(t, s.Every("dup", time.Second, func() {}))

	assert.NoError(t, s.Remove("dup"))
	assert.Error(t, s.Remove("dup"))
	assert.Zero(t, s.Runs("dup"))
}

func TestSchedulerDoesNotOverlap(t *testing.T) {
	s := NewScheduler(golog.NewTestLogger(t))
	var running, overlaps, runs atomic.Int32
	require.NoError(t, s.Every("slow", 2*time.Millisecond, func() {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		runs.Add(1)
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()
	assert.Zero(t, overlaps.Load())
}

func TestStopBeforeStart(t *testing.T) {
	s := NewScheduler(nil)
	s.Stop()
	assert.False(t, s.Running())
}
