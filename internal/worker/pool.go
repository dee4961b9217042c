package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var (
	// ErrShutdownTimeout is returned when workers don't stop within timeout.
	ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

	// ErrQueueFull is returned when a job cannot be queued without blocking.
	ErrQueueFull = errors.New("worker pool queue is full")

	// ErrPoolStopped is returned when submitting to a stopped pool.
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Job is one unit of work, typically the handling of one inbound update.
type Job struct {
	// Name identifies the job in logs.
	Name string
	Run  func(ctx context.Context) error

	// Payload is handed back to the error and panic hooks.
	Payload any
}

// Config holds worker pool configuration.
type Config struct {
	Workers   int
	QueueSize int

	// RequestTimeout bounds every job. Zero means no deadline.
	RequestTimeout time.Duration

	// OnError is called with the error a job returned.
	OnError func(job Job, err error)

	// OnPanic is called with the value and stack of a recovered job panic.
	OnPanic func(job Job, recovered any, stack []byte)
}

// Pool runs submitted jobs on a fixed number of workers.
type Pool struct {
	workers        int
	requestTimeout time.Duration
	onError        func(Job, error)
	onPanic        func(Job, any, []byte)
	logger         *slog.Logger

	queue chan Job

	mu      sync.RWMutex
	stopped bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new worker pool.
func NewPool(cfg Config, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:        cfg.Workers,
		requestTimeout: cfg.RequestTimeout,
		onError:        cfg.OnError,
		onPanic:        cfg.OnPanic,
		logger:         logger,
		queue:          make(chan Job, cfg.QueueSize),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool", "workers", p.workers, "queue_size", cap(p.queue))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new jobs, lets workers drain the queue and waits for them.
// Jobs still running when timeout expires have their context cancelled.
func (p *Pool) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.logger.Info("stopping worker pool", "pending", len(p.queue))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(timeout):
		p.cancel()
		return ErrShutdownTimeout
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Debug("worker started")

	for job := range p.queue {
		p.run(logger, job)
	}

	logger.Debug("worker stopping")
}

func (p *Pool) run(logger *slog.Logger, job Job) {
	logger = logger.With("job", job.Name)

	ctx := p.ctx
	if p.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.requestTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("job panicked", "panic", r, "stack", string(stack))
			if p.onPanic != nil {
				p.onPanic(job, r, stack)
			}
		}
	}()

	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		logger.Error("job failed", "error", err, "duration", time.Since(start))
		if p.onError != nil {
			p.onError(job, err)
		}
		return
	}

	logger.Debug("job completed", "duration", time.Since(start))
}
