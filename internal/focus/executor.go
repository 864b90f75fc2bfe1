package focus

import (
	"sync"

	"github.com/eapache/queue"
)

// Task is a unit of serialized work.
type Task func()

// SerialExecutor runs submitted tasks one at a time on a single worker
// goroutine, so tasks never overlap. Tasks submitted with Submit run in
// submission order; tasks submitted with SubmitToFront run before any
// queued-but-not-started Submit task, which bounds the latency of
// preemptive operations regardless of backlog.
//
// Tasks may themselves submit further work, but must not wait for it
// synchronously: the worker cannot drain the queue recursively.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	front  *queue.Queue
	back   *queue.Queue
	closed bool
	done   chan struct{}
}

// NewSerialExecutor starts the worker goroutine and returns the executor.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{
		front: queue.New(),
		back:  queue.New(),
		done:  make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Submit enqueues a task behind all pending work. It reports false if the
// executor has been shut down, in which case the task will never run.
func (e *SerialExecutor) Submit(task Task) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.back.Add(task)
	e.cond.Signal()
	return true
}

// SubmitToFront enqueues a task ahead of all pending Submit work. It
// reports false if the executor has been shut down.
func (e *SerialExecutor) SubmitToFront(task Task) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.front.Add(task)
	e.cond.Signal()
	return true
}

// Shutdown rejects further submissions, lets the worker drain everything
// already enqueued, and blocks until it has exited. Safe to call more than
// once.
func (e *SerialExecutor) Shutdown() {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		e.cond.Signal()
	}
	e.mu.Unlock()
	<-e.done
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for e.front.Length() == 0 && e.back.Length() == 0 && !e.closed {
			e.cond.Wait()
		}
		var task Task
		switch {
		case e.front.Length() > 0:
			task = e.front.Remove().(Task)
		case e.back.Length() > 0:
			task = e.back.Remove().(Task)
		default:
			// Closed and fully drained.
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
		task()
	}
}
