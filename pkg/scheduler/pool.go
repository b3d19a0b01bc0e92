package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrPoolStopped is returned by Run once the pool has been stopped or its context canceled.
var ErrPoolStopped = errors.New("scheduler: pool stopped")

// State is the phase a worker is in.
type State int32

const (
	Idle State = iota
	Running
	Done
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Range is the half open interval [Start, End) of a chunk.
type Range struct {
	Start, End int
}

// Len returns the number of items in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Chunks splits [0, n) into parts contiguous ranges of n/parts items; the last one
// absorbs the remainder.
func Chunks(n, parts int) []Range {
	if parts < 1 {
		parts = 1
	}
	size := n / parts
	chunks := make([]Range, parts)
	for i := range chunks {
		chunks[i] = Range{Start: i * size, End: (i + 1) * size}
	}
	chunks[parts-1].End = n
	return chunks
}

// Task processes the chunk r on behalf of worker.
type Task func(worker int, r Range) error

type job struct {
	r    Range
	task Task
}

type result struct {
	worker int
	err    error
}

// Pool is a fixed set of persistent goroutines that process one step at a time.
// Run is the phase barrier: it hands one chunk to each worker and returns when every
// worker has reported back.
type Pool struct {
	jobs    []chan job
	results chan result
	states  []atomic.Int32

	g      *errgroup.Group
	cancel context.CancelFunc
	exited chan struct{}

	mu       sync.Mutex // serializes Run and Stop
	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewPool starts workers goroutines (runtime.NumCPU() when workers < 1). They live
// until Stop is called or ctx is canceled. Canceling ctx stops the pool between two
// runs: a Run in progress completes every chunk first.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	inner, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, inner := errgroup.WithContext(inner)

	p := &Pool{
		jobs:    make([]chan job, workers),
		results: make(chan result, workers),
		states:  make([]atomic.Int32, workers),
		g:       g,
		cancel:  cancel,
		exited:  make(chan struct{}),
	}
	for w := range p.jobs {
		p.jobs[w] = make(chan job, 1)
		g.Go(func() error {
			p.work(inner, w)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		p.stopped.Store(true)
		close(p.exited)
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = p.Stop()
		case <-p.exited:
		}
	}()
	return p
}

// Workers returns the size of the pool.
func (p *Pool) Workers() int {
	return len(p.jobs)
}

// States returns a snapshot of every worker's state. Every worker goes through
// Running and Done on each Run, even when its chunk is empty.
func (p *Pool) States() []State {
	s := make([]State, len(p.states))
	for i := range p.states {
		s[i] = State(p.states[i].Load())
	}
	return s
}

func (p *Pool) work(ctx context.Context, w int) {
	defer p.states[w].Store(int32(Stopped))
	for {
		// a queued chunk wins over a stop request
		select {
		case j := <-p.jobs[w]:
			p.run(w, j)
			continue
		default:
		}
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs[w]:
			p.run(w, j)
		}
	}
}

func (p *Pool) run(w int, j job) {
	p.states[w].Store(int32(Running))
	err := runTask(w, j)
	p.states[w].Store(int32(Done))
	p.results <- result{worker: w, err: err}
}

func runTask(w int, j job) (err error) {
	if j.r.Len() == 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %d: panic on %v: %v", w, j.r, r)
		}
	}()
	if err := j.task(w, j.r); err != nil {
		return fmt.Errorf("worker %d on %v: %w", w, j.r, err)
	}
	return nil
}

// Run splits [0, n) with Chunks, gives one chunk to each worker and waits until all of
// them are done. Errors returned (or panics raised) by task are joined. Task is not
// called for empty chunks. n == 0 is a no-op.
func (p *Pool) Run(n int, task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped.Load() {
		return ErrPoolStopped
	}
	if n <= 0 {
		return nil
	}

	pending := 0
	for w, r := range Chunks(n, len(p.jobs)) {
		p.jobs[w] <- job{r: r, task: task}
		pending++
	}

	var errs []error
	for pending > 0 {
		select {
		case res := <-p.results:
			pending--
			if res.err != nil {
				errs = append(errs, res.err)
			}
		case <-p.exited:
			// workers only exit between runs, so nothing is running any more
			p.drain()
			return errors.Join(append(errs, ErrPoolStopped)...)
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) drain() {
	for _, ch := range p.jobs {
		select {
		case <-ch:
		default:
		}
	}
	for {
		select {
		case <-p.results:
		default:
			return
		}
	}
}

// Stop waits for the Run in progress, if any, then asks every worker to leave and
// waits for them. It is safe to call Stop more than once.
func (p *Pool) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped.Store(true)
		p.mu.Unlock()
		p.cancel()
		err = p.g.Wait()
		<-p.exited
	})
	return err
}
