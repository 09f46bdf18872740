package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerExecutesSubmittedJob(t *testing.T) {
	r := NewRunner(4)
	r.Start()
	defer r.Stop()

	done := make(chan struct{})
	require.NoError(t, r.Submit("test", func(ctx context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never executed")
	}
}

func TestRunnerSubmitBeforeStart(t *testing.T) {
	r := NewRunner(4)
	err := r.Submit("early", func(ctx context.Context) {})
	assert.Error(t, err)
}

func TestRunnerQueueFull(t *testing.T) {
	r := NewRunner(1)
	r.Start()
	defer r.Stop()

	block := make(chan struct{})
	// Occupy the worker, then fill the queue.
	require.NoError(t, r.Submit("blocker", func(ctx context.Context) {
		<-block
	}))

	// The worker may or may not have picked up the first job yet; keep
	// submitting until the queue rejects.
	var sawFull bool
	for i := 0; i < 3; i++ {
		if err := r.Submit("filler", func(ctx context.Context) {}); err != nil {
			sawFull = true
			break
		}
	}
	close(block)
	assert.True(t, sawFull, "expected a queue-full error")
}

func TestRunnerRecoversFromPanic(t *testing.T) {
	r := NewRunner(4)
	r.Start()
	defer r.Stop()

	var ran atomic.Bool
	done := make(chan struct{})

	require.NoError(t, r.Submit("panics", func(ctx context.Context) {
		panic("boom")
	}))
	require.NoError(t, r.Submit("after", func(ctx context.Context) {
		ran.Store(true)
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	assert.True(t, ran.Load(), "runner should survive a panicking job")
}
