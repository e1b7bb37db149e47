package analyzer

import "context"

// WorkerPool bounds how many modules analyze text at the same time across all
// requests.
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool creates a pool with size slots. Non-positive sizes fall back
// to 4.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 4
	}
	return &WorkerPool{sem: make(chan struct{}, size)}
}

// Size returns the number of slots.
func (p *WorkerPool) Size() int {
	return cap(p.sem)
}

// RunContext runs fn while holding a slot. It returns ctx.Err() without
// running fn if the context ends while waiting.
func (p *WorkerPool) RunContext(ctx context.Context, fn func() error) error {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
		return fn()
	case <-ctx.Done():
		return ctx.Err()
	}
}
