package game

import (
	"context"
	"sync"
)

// Runner owns the goroutines of live sessions. Every session runs on the
// runner's root context, so Shutdown reaches lobbies and running games alike.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewRunner creates a runner whose root context is cancelled by Shutdown.
func NewRunner() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{ctx: ctx, cancel: cancel}
}

// Closed reports whether Shutdown has been called.
func (r *Runner) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Go runs fn in a new goroutine with the root context. After Shutdown fn
// runs in the calling goroutine on the already cancelled context, so it
// can still clean up before the caller returns.
func (r *Runner) Go(fn func(ctx context.Context)) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		fn(r.ctx)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		fn(r.ctx)
	}()
}

// Shutdown cancels the root context and waits for every session started
// with Go to return, or for ctx to be done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
