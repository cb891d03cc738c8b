package embedding

import (
	"context"
	"sync"
	"sync/atomic"
)

// fixedEncoder returns the same vector for every text and counts calls.
type fixedEncoder struct {
	vector []float32
	tokens int
	calls  atomic.Int32
}

func (e *fixedEncoder) Encode(_ context.Context, _ string) (Encoding, error) {
	e.calls.Add(1)
	vec := append([]float32(nil), e.vector...)
	return Encoding{Vector: vec, Usage: &TokenUsage{InputTokens: e.tokens}}, nil
}

// inlineExecutor runs each task on the submitting goroutine.
var inlineExecutor = ExecutorFunc(func(task func()) error {
	task()
	return nil
})

// reverseExecutor holds tasks until n have been submitted, then runs them
// last-to-first on another goroutine.
type reverseExecutor struct {
	n     int
	mu    sync.Mutex
	tasks []func()
}

func (e *reverseExecutor) Execute(task func()) error {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	var ready []func()
	if len(e.tasks) == e.n {
		ready = e.tasks
	}
	e.mu.Unlock()
	if ready != nil {
		go func() {
			for i := len(ready) - 1; i >= 0; i-- {
				ready[i]()
			}
		}()
	}
	return nil
}

// closableExecutor records whether Close was called.
type closableExecutor struct {
	closed atomic.Bool
}

func (e *closableExecutor) Execute(task func()) error {
	go task()
	return nil
}

func (e *closableExecutor) Close() error {
	e.closed.Store(true)
	return nil
}
