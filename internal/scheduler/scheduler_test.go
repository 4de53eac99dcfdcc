package scheduler

import (
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_RunsJob(t *testing.T) {
	s := New(testLogger())

	var runs atomic.Int32
	err := s.AddJob("counter", "@every 10ms", func() error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(testLogger())

	err := s.AddJob("broken", "not a cron spec", func() error { return nil })
	assert.Error(t, err)
}

func TestScheduler_JobPanicIsRecovered(t *testing.T) {
	s := New(testLogger())

	var after atomic.Bool
	err := s.AddJob("panics", "@every 10ms", func() error {
		if !after.Load() {
			after.Store(true)
			panic("boom")
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	// The panic in the first run must not kill the cron loop
	assert.Eventually(t, func() bool {
		return after.Load()
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_StopWaitsForRunningJobs(t *testing.T) {
	s := New(testLogger())

	var finished atomic.Int32
	err := s.AddJob("slow", "@every 10ms", func() error {
		time.Sleep(50 * time.Millisecond)
		finished.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.Start()

	require.Eventually(t, func() bool {
		return finished.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	before := finished.Load()
	s.Stop()
	// Stop returns only after in-flight runs complete
	assert.GreaterOrEqual(t, finished.Load(), before)
}
