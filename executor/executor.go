// Package executor provides the worker-pool execution substrate the wheel
// driver spawns due actions onto (spec.md §4.5/§6's "Executor" consumed
// interface), so a slow or panicking action cannot stall the driver
// thread.
//
// Pool is grounded on the teacher's async/async.go job-queue-and-loop
// pattern (a buffered channel drained by a background goroutine, wrapped
// in a panic-recovering loop via async/gwutils.RepeatUntilPanicless),
// generalized from a single global per-group worker to a sized pool.
package executor

import (
	"sync"

	"github.com/go-logr/logr"
)

// Interface is the consumed Executor capability.
type Interface interface {
	// Spawn submits action for execution. Pool runs it off the caller's
	// goroutine; Inline runs it synchronously on the caller's goroutine.
	Spawn(action func())
}

// Inline runs action synchronously on the caller's goroutine. It exists
// so the wheel core is testable with a deterministic executor, matching
// spec.md §9's "the core is testable with a synchronous inline executor."
type Inline struct{}

// Spawn implements Interface.
func (Inline) Spawn(action func()) { action() }

// Pool is a fixed-size worker pool. Each worker runs a panic-contained
// loop pulled from a shared, buffered job queue.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
	log  logr.Logger
}

// NewPool starts workers goroutines draining a queue of bufferSize jobs.
// Submissions beyond the buffer block the caller, matching the teacher's
// buffered-channel backpressure rather than growing unbounded.
func NewPool(workers, bufferSize int, log logr.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	p := &Pool{
		jobs: make(chan func(), bufferSize),
		log:  log,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.runPanicless(job)
	}
}

// runPanicless executes job, recovering and logging any panic so one bad
// action never kills a worker goroutine, following
// async/gwutils.RunPanicless.
func (p *Pool) runPanicless(job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error(nil, "executor: recovered panic in spawned action", "panic", r)
		}
	}()
	job()
}

// Spawn implements Interface. It blocks if the pool's buffer is full.
func (p *Pool) Spawn(action func()) {
	p.jobs <- action
}

// Close stops accepting new work and waits for in-flight jobs to finish.
// Already-queued jobs are drained before workers exit.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
