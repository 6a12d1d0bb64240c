// Package lifecycle coordinates startup and shutdown of application subsystems.
// Subsystems register startup work and long-running shutdown watchers with a
// Coordinator; the owning composition root drives both phases.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessChecker reports whether startup has completed.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator tracks registered startup functions and shutdown watchers for a
// set of subsystems sharing one lifecycle.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	startup []func()
	started sync.Once

	watchers sync.WaitGroup
	ready    atomic.Bool
}

// New creates a Coordinator with a fresh lifecycle context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the lifecycle context. It is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a function to run during WaitForStartup.
// Registration order is preserved.
func (c *Coordinator) OnStartup(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startup = append(c.startup, fn)
}

// OnShutdown registers a shutdown watcher. The watcher runs on its own
// goroutine and conventionally blocks on Context().Done() before performing
// cleanup; Shutdown waits for all watchers to return.
func (c *Coordinator) OnShutdown(fn func()) {
	c.watchers.Add(1)
	go func() {
		defer c.watchers.Done()
		fn()
	}()
}

// WaitForStartup runs all registered startup functions in order and marks the
// coordinator ready. Subsequent calls are no-ops.
func (c *Coordinator) WaitForStartup() {
	c.started.Do(func() {
		c.mu.Lock()
		fns := c.startup
		c.startup = nil
		c.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
		c.ready.Store(true)
	})
}

// Ready reports whether WaitForStartup has completed.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// Shutdown cancels the lifecycle context and waits up to timeout for all
// shutdown watchers to finish. It returns an error if the timeout elapses
// with watchers still running.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.watchers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timed out after %s", timeout)
	}
}
