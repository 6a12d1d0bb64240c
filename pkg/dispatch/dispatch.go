// Package dispatch provides the serial work queue that backs every
// asynchronous operation in KStorage. A Queue owns one dedicated worker
// goroutine; submitted functions run one at a time in submission order,
// so queued operations never interleave with each other.
package dispatch

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/KAIMAN-iOS/KStorage/pkg/lifecycle"
)

// ErrQueueClosed indicates work was submitted after shutdown began.
var ErrQueueClosed = errors.New("dispatch: queue closed")

// Queue executes submitted functions serially on a dedicated worker
// goroutine. There is no cancellation: once accepted, a function runs
// to completion, and a stalled function stalls everything behind it.
type Queue struct {
	work    chan func()
	logger  *slog.Logger
	drained chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// New creates a queue and starts its worker. The worker runs until
// Close drains the queue, so a queue is usable with or without
// lifecycle coordination.
func New(cfg *Config, logger *slog.Logger) *Queue {
	q := &Queue{
		work:    make(chan func(), cfg.QueueSize),
		logger:  logger.With("system", "dispatch"),
		drained: make(chan struct{}),
	}

	go q.run()
	return q
}

// Start registers queue drain with the coordinator: on shutdown the
// queue stops accepting work and the worker finishes everything
// already submitted.
func (q *Queue) Start(lc *lifecycle.Coordinator) error {
	q.logger.Info("starting dispatch queue", "buffer", cap(q.work))

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		q.Close()
		q.logger.Info("dispatch queue drained")
	})

	return nil
}

// Do submits a function for serial execution. It blocks while the
// buffer is full and returns ErrQueueClosed once shutdown has begun.
func (q *Queue) Do(fn func()) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.work <- fn
	return nil
}

// Wait blocks until every function submitted before it has finished.
// It returns immediately if the queue is closed.
func (q *Queue) Wait() {
	flushed := make(chan struct{})
	if err := q.Do(func() { close(flushed) }); err != nil {
		return
	}
	<-flushed
}

// Close stops accepting new work and blocks until the worker has
// finished everything already submitted. Safe to call more than once.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.work)
		q.mu.Unlock()
	})

	<-q.drained
}

func (q *Queue) run() {
	for fn := range q.work {
		fn()
	}
	close(q.drained)
}
