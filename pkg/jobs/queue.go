package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueStopped is returned when enqueueing on a queue that is not running.
var ErrQueueStopped = errors.New("queue not running")

// Job represents a queued background task.
type Job struct {
	ID       string
	Kind     string
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. Returning an error schedules a retry until the
// attempt budget is exhausted.
type Handler func(context.Context, Job) error

// Observer receives job outcomes (e.g. for metrics).
type Observer interface {
	JobFinished(kind string, err error, duration time.Duration)
}

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
	Observer   Observer
}

// Queue is an in-memory job dispatcher backed by a fixed goroutine pool.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start begins worker consumption. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue pushes a job onto the queue, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("%s: %w", q.name, ErrQueueStopped)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrQueueStopped)
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			start := time.Now()
			err := q.handler(q.ctx, job)
			if q.cfg.Observer != nil {
				q.cfg.Observer.JobFinished(job.Kind, err, time.Since(start))
			}
			if err != nil {
				q.retry(job, err)
			}
		}
	}
}

func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.logger.Error("job exceeded retries", zap.String("job_id", job.ID), zap.String("kind", job.Kind), zap.Error(err))
		return
	}
	q.logger.Warn("job failed, retrying",
		zap.String("job_id", job.ID),
		zap.String("kind", job.Kind),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	)

	go func(j Job) {
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
