package mailer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

// Queue runs jobs on a fixed number of workers. Enqueue never blocks: when
// the buffer is full the job is dropped and reported on the dead-letter log.
type Queue struct {
	jobs       chan Job
	workers    int
	jobTimeout time.Duration
	log        zerolog.Logger
	deadLetter zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewQueue(workers, size int, log, deadLetter zerolog.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	return &Queue{
		jobs:       make(chan Job, size),
		workers:    workers,
		jobTimeout: 2 * time.Minute,
		log:        log,
		deadLetter: deadLetter,
	}
}

// Start launches the workers. Jobs run on a context derived from ctx that
// survives ctx's cancellation, so Shutdown can drain what is buffered.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))

	q.wg.Add(q.workers)
	for i := 0; i < q.workers; i++ {
		go q.worker()
	}
	q.log.Info().Int("workers", q.workers).Int("capacity", cap(q.jobs)).Msg("mail queue started")
}

func (q *Queue) Enqueue(job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(job, "queue closed")
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		q.drop(job, "queue full")
		return false
	}
}

// Shutdown stops intake and waits for buffered jobs to finish. If ctx
// expires first the running jobs are cancelled.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}

func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

func (q *Queue) Failed() int64 {
	return q.failed.Load()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	ctx, cancel := context.WithTimeout(q.ctx, q.jobTimeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return job.Run(ctx)
	}()

	if err != nil {
		q.failed.Add(1)
		q.deadLetter.Error().
			Err(err).
			Str("event", "mail_failed").
			Str("job", job.ID).
			Msg("mail job failed")
		return
	}
	q.log.Debug().Str("job", job.ID).Dur("took", time.Since(start)).Msg("mail job done")
}

func (q *Queue) drop(job Job, reason string) {
	q.dropped.Add(1)
	q.deadLetter.Warn().
		Str("event", "mail_dropped").
		Str("job", job.ID).
		Str("reason", reason).
		Msg("mail job dropped")
}
