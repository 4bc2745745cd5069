// Package worker runs per-document ingestion jobs concurrently with
// per-host rate limiting.
package worker

import (
	"context"
	"sync"

	"github.com/pitwall/stewarding/internal/model"
)

// Status is the terminal state of one document's ingestion.
type Status string

const (
	// StatusStored means the document was parsed and a new record inserted.
	StatusStored Status = "stored"
	// StatusSkipped means the record already existed under its natural key.
	StatusSkipped Status = "skipped"
	// StatusFailed means one pipeline stage failed for this document.
	StatusFailed Status = "failed"
)

// Outcome is the result of one document job. Stage names the pipeline step
// that produced Err when Status is StatusFailed.
type Outcome struct {
	Ref    model.DocumentReference
	Status Status
	Stage  string
	Err    error
}

// Job is one unit of document ingestion work.
type Job interface {
	Execute(ctx context.Context) Outcome
}

// Pool executes document jobs on a fixed set of workers. One document's
// failure never stops the others. Workers append outcomes to an internal
// collector as they finish, so a caller may submit an entire batch before
// asking for results; only the job queue itself applies backpressure.
type Pool struct {
	workers    int
	jobQueue   chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu       sync.Mutex
	outcomes []Outcome
}

// NewPool creates a pool with the specified number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2), // Buffered to prevent blocking
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			outcome := job.Execute(p.ctx)
			p.mu.Lock()
			p.outcomes = append(p.outcomes, outcome)
			p.mu.Unlock()
		}
	}
}

// Submit queues a job for execution. It blocks only while the job queue is
// full and every worker is busy.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Wait blocks until every submitted job finished and returns their outcomes.
func (p *Pool) Wait() []Outcome {
	// Close job queue to signal workers to exit when done
	close(p.jobQueue)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Outcome, len(p.outcomes))
	copy(out, p.outcomes)
	return out
}

// Shutdown stops the pool immediately, abandoning queued jobs. Jobs already
// running finish first.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
}
