// Package workerpool runs the bridge's blocking work — screenshot tool
// spawns, filesystem walks, accessibility dumps — on a fixed set of
// goroutines so RPC handlers never stall the gRPC transport waiting on an
// external process.
package workerpool

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("workerpool")

// Task is one unit of blocking work.
type Task func()

// Pool is a bounded pool: maxWorkers goroutines drain a queue of at most
// queueSize pending tasks. A full queue rejects rather than blocks, so a
// burst of screenshot requests degrades to errors instead of a pile-up.
type Pool struct {
	queue    chan Task
	inflight sync.WaitGroup
	open     atomic.Bool
	closing  chan struct{}
	stopOnce sync.Once
	quitOnce sync.Once
}

// New starts a pool with maxWorkers goroutines and queueSize pending
// slots. Both are clamped to at least 1.
func New(maxWorkers, queueSize int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pool{
		queue:   make(chan Task, queueSize),
		closing: make(chan struct{}),
	}
	p.open.Store(true)

	for i := 0; i < maxWorkers; i++ {
		go p.worker()
	}

	log.Info("worker pool started", "workers", maxWorkers, "queueSize", queueSize)
	return p
}

// Submit enqueues a task, reporting false when the pool is closed or the
// queue is full. The inflight count is raised before the enqueue so a
// concurrent Shutdown cannot miss the task.
func (p *Pool) Submit(task Task) bool {
	if !p.open.Load() {
		return false
	}

	p.inflight.Add(1)
	select {
	case p.queue <- task:
		return true
	default:
		p.inflight.Done()
		log.Warn("worker pool queue full, task rejected")
		return false
	}
}

// StopAccepting closes the pool to new submissions without touching work
// already queued.
func (p *Pool) StopAccepting() {
	p.open.Store(false)
}

// Drain waits for queued and running tasks to finish, bounded by ctx.
// Draining implies no further submissions; workers exit once the drain
// completes (or is abandoned).
func (p *Pool) Drain(ctx context.Context) {
	p.open.Store(false)
	p.stopOnce.Do(func() { close(p.closing) })

	finished := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		log.Info("worker pool drained")
	case <-ctx.Done():
		log.Warn("worker pool drain timed out")
	}

	p.quitOnce.Do(func() { close(p.queue) })
}

// Shutdown is StopAccepting followed by Drain.
func (p *Pool) Shutdown(ctx context.Context) {
	p.StopAccepting()
	p.Drain(ctx)
}

func (p *Pool) worker() {
	for {
		select {
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			p.execute(task)
		case <-p.closing:
			// Finish whatever is still queued, then exit.
			for {
				select {
				case task, ok := <-p.queue:
					if !ok {
						return
					}
					p.execute(task)
				default:
					return
				}
			}
		}
	}
}

// execute runs one task with panic containment: a crashing screenshot
// helper must not take the bridge process down with it.
func (p *Pool) execute(task Task) {
	defer p.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
