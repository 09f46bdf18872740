// Package task runs fire-and-forget background work on a bounded queue,
// decoupled from the request/response cycle.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type job struct {
	name string
	fn   func(ctx context.Context)
}

// Runner executes submitted jobs one at a time on a single worker
// goroutine. Submission never blocks: a full queue is reported to the
// caller instead.
type Runner struct {
	mu      sync.Mutex
	queue   chan job
	logger  *slog.Logger
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRunner(queueSize int) *Runner {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Runner{
		queue:  make(chan job, queueSize),
		logger: slog.Default().With("component", "task_runner"),
	}
}

// Start launches the worker. Calling Start on a running runner is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case j := <-r.queue:
				r.run(ctx, j)
			}
		}
	}()

	r.logger.Info("runner started")
}

func (r *Runner) run(ctx context.Context, j job) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("task panicked", "task", j.name, "panic", rec)
		}
	}()

	start := time.Now()
	r.logger.Info("running task", "task", j.name)
	j.fn(ctx)
	r.logger.Info("task finished", "task", j.name, "duration", time.Since(start))
}

// Submit enqueues a job. It returns an error when the runner is stopped
// or the queue is full.
func (r *Runner) Submit(name string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		return fmt.Errorf("task runner is not running")
	}

	select {
	case r.queue <- job{name: name, fn: fn}:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// Stop cancels the worker context and waits for the in-flight job.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("runner stopped")
}
