package worker

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
)

// ErrPanic is reported to the callback when a task panics.
var ErrPanic = errors.New("worker task panicked")

// Task is one unit of work. It should return promptly once ctx is done.
type Task func(ctx context.Context) error

// ResultCallback is invoked on task completion from a worker goroutine.
// Callers that own state should post the result back to their own loop.
type ResultCallback func(err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	task Task
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: starting %s", j.name)
				err := run(j)
				log.Printf("Worker: %s finished, err=%v", j.name, err)
				if j.cb != nil {
					j.cb(err)
				}
			}
		}()
	}
}

func run(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker: PANIC in %s: %v", j.name, r)
			err = ErrPanic
		}
	}()
	if err := j.ctx.Err(); err != nil {
		return err
	}
	return j.task(j.ctx)
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, task: task, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
