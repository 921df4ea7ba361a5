package scene

import (
	"fmt"
	"sync"
)

// bondJob pairs a request with the channel its result is delivered on.
type bondJob struct {
	req BondRequest
	out chan BondResult
}

// WorkerInferencer runs bond inference on background goroutines. Requests are
// queued on a channel; each request gets its own result channel so callers can
// abandon stale results by simply not reading them.
type WorkerInferencer struct {
	mu     sync.Mutex
	jobs   chan bondJob
	closed bool
	wg     sync.WaitGroup
	logger Logger
}

// NewWorkerInferencer starts n worker goroutines. n < 1 is treated as 1.
func NewWorkerInferencer(n int, logger Logger) *WorkerInferencer {
	if n < 1 {
		n = 1
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}
	wi := &WorkerInferencer{
		jobs:   make(chan bondJob, 64),
		logger: logger,
	}
	for i := 0; i < n; i++ {
		wi.wg.Add(1)
		go wi.worker()
	}
	return wi
}

func (wi *WorkerInferencer) worker() {
	defer wi.wg.Done()
	for job := range wi.jobs {
		res := BondResult{ID: job.req.ID}
		if job.req.Molecule == nil {
			res.Err = fmt.Errorf("bond request %d has no molecule", job.req.ID)
		} else {
			res.Bonds = InferBonds(job.req.Molecule)
		}
		job.out <- res
		close(job.out)
	}
}

// Infer queues the request. Returns an error when the worker is closed or the
// queue is full; the store falls back to inline computation in that case.
func (wi *WorkerInferencer) Infer(req BondRequest) (<-chan BondResult, error) {
	wi.mu.Lock()
	closed := wi.closed
	wi.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("bond worker is closed")
	}

	out := make(chan BondResult, 1)
	select {
	case wi.jobs <- bondJob{req: req, out: out}:
		return out, nil
	default:
		return nil, fmt.Errorf("bond worker queue full")
	}
}

// Close stops accepting requests and waits for in-flight work to finish.
func (wi *WorkerInferencer) Close() error {
	wi.mu.Lock()
	if wi.closed {
		wi.mu.Unlock()
		return nil
	}
	wi.closed = true
	close(wi.jobs)
	wi.mu.Unlock()
	wi.wg.Wait()
	return nil
}
