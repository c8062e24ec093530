// Package workerpool runs download tasks on a fixed number of goroutines.
package workerpool

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/breeze-rmm/dailywall/internal/logging"
)

var log = logging.L("workerpool")

// Task is a unit of work. ctx is cancelled once the pool has drained.
type Task func(ctx context.Context)

// Pool is a bounded goroutine pool with a fixed-size task queue.
type Pool struct {
	tasks   chan Task
	pending sync.WaitGroup

	// mu is held shared by senders and exclusively to flip stopped, so the
	// queue is never closed while a send is in flight.
	mu      sync.RWMutex
	stopped bool

	stopping  chan struct{}
	stopOnce  sync.Once
	drainOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts maxWorkers goroutines reading a queue of queueSize tasks.
func New(maxWorkers, queueSize int) *Pool {
	maxWorkers = max(maxWorkers, 1)
	queueSize = max(queueSize, 1)

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:    make(chan Task, queueSize),
		stopping: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for range maxWorkers {
		go p.work()
	}

	log.Debug("worker pool started", "workers", maxWorkers, "queueSize", queueSize)
	return p
}

// Context is cancelled when the pool drains.
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Submit enqueues task without blocking. It returns false when the pool is
// stopping or the queue is full.
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}

	p.pending.Add(1)
	select {
	case p.tasks <- task:
		return true
	default:
		p.pending.Done()
		log.Warn("worker pool queue full, task rejected")
		return false
	}
}

// SubmitWait enqueues task, waiting for queue space. It returns false when
// ctx ends or the pool starts stopping first.
func (p *Pool) SubmitWait(ctx context.Context, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}

	p.pending.Add(1)
	select {
	case p.tasks <- task:
		return true
	case <-ctx.Done():
	case <-p.stopping:
	}
	p.pending.Done()
	return false
}

// StopAccepting makes further submissions fail. Blocked SubmitWait calls
// return false.
func (p *Pool) StopAccepting() {
	p.stopOnce.Do(func() { close(p.stopping) })
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
}

// Drain stops accepting tasks and waits for queued and running ones until
// ctx ends. Workers exit once the queue is empty.
func (p *Pool) Drain(ctx context.Context) {
	p.StopAccepting()

	finished := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		log.Debug("worker pool drained")
	case <-ctx.Done():
		log.Warn("worker pool drain timed out")
	}

	p.drainOnce.Do(func() {
		p.cancel()
		close(p.tasks)
	})
}

// Shutdown is Drain; it reads better at call sites that own the pool.
func (p *Pool) Shutdown(ctx context.Context) {
	p.Drain(ctx)
}

func (p *Pool) work() {
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	defer p.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task(p.ctx)
}
