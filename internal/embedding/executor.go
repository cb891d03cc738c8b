package embedding

import (
	"runtime"
	"sync"
)

// Executor runs units of work concurrently. Execute must not wait for task to
// finish; it returns an error only if the task was not accepted.
type Executor interface {
	Execute(task func()) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func()) error

// Execute calls f.
func (f ExecutorFunc) Execute(task func()) error { return f(task) }

// BoundedExecutor is a fixed-size worker pool. Submitted tasks are queued and
// drained by at most workers goroutines, which exit when the queue is empty.
// Execute never blocks.
type BoundedExecutor struct {
	workers int

	mu      sync.Mutex
	queue   []func()
	running int
	closed  bool
	wg      sync.WaitGroup
}

// NewBoundedExecutor returns a pool running up to workers tasks concurrently.
// workers <= 0 sizes the pool to the number of available CPUs.
func NewBoundedExecutor(workers int) *BoundedExecutor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BoundedExecutor{workers: workers}
}

// Execute queues task. It returns ErrExecutorClosed after Close.
func (e *BoundedExecutor) Execute(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrExecutorClosed
	}
	e.queue = append(e.queue, task)
	if e.running < e.workers {
		e.running++
		e.wg.Add(1)
		go e.work()
	}
	return nil
}

func (e *BoundedExecutor) work() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running--
			e.mu.Unlock()
			return
		}
		task := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()
		task()
	}
}

// Workers returns the maximum number of concurrently running tasks.
func (e *BoundedExecutor) Workers() int { return e.workers }

// Close stops accepting work and waits for queued tasks to finish.
func (e *BoundedExecutor) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}
