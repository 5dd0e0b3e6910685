package jobqueue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type HandlerFunc func(ctx context.Context, job Job) error

// Worker polls the job table and dispatches due jobs to registered
// handlers. One worker instance owns the queue; calling Start twice
// never spawns a second poller.
type Worker struct {
	repo     Repository
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewWorker(repo Repository, interval time.Duration, logger ...*zap.Logger) *Worker {
	l := zap.L().Named("jobqueue.worker")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("jobqueue.worker")
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		repo:     repo,
		interval: interval,
		logger:   l,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds a handler to a purpose. Must be called before Start.
func (w *Worker) Register(purpose string, fn HandlerFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[purpose] = fn
}

func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.logger.Warn("worker already started, ignoring second start")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(runCtx)
	w.logger.Info("job worker started", zap.Duration("poll_interval", w.interval))
}

// Stop cancels the poll loop and waits for the in-flight job to finish.
// Returns ctx.Err when the drain deadline expires first.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		w.logger.Info("job worker drained")
		return nil
	case <-ctx.Done():
		w.logger.Warn("job worker drain deadline expired")
		return ctx.Err()
	}
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runDue(ctx)
		}
	}
}

func (w *Worker) runDue(ctx context.Context) {
	jobs, err := w.repo.ListDue(ctx, time.Now().UTC(), 20)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("list due jobs failed", zap.Error(err))
		}
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	log := w.logger.With(
		zap.Int64("job_id", job.ID),
		zap.String("purpose", job.Purpose),
		zap.String("singleton_key", job.SingletonKey),
	)

	w.mu.Lock()
	handler, ok := w.handlers[job.Purpose]
	w.mu.Unlock()
	if !ok {
		log.Error("no handler registered for purpose, archiving job")
		if err := w.repo.Archive(ctx, job.ID, OutcomeFailed, "no handler registered"); err != nil {
			log.Error("archive job failed", zap.Error(err))
		}
		return
	}

	if err := handler(ctx, job); err != nil {
		retryCount := job.RetryCount + 1
		if retryCount > job.MaxRetries {
			log.Error("job exhausted retries, archiving",
				zap.Int("retry_count", retryCount),
				zap.Error(err),
			)
			if archiveErr := w.repo.Archive(ctx, job.ID, OutcomeFailed, err.Error()); archiveErr != nil {
				log.Error("archive exhausted job failed", zap.Error(archiveErr))
			}
			return
		}

		next := time.Now().UTC().Add(backoffDelay(retryCount))
		log.Warn("job failed, rescheduling",
			zap.Int("retry_count", retryCount),
			zap.Time("next_run", next),
			zap.Error(err),
		)
		if rescheduleErr := w.repo.Reschedule(ctx, job.ID, retryCount, next, err.Error()); rescheduleErr != nil {
			log.Error("reschedule job failed", zap.Error(rescheduleErr))
		}
		return
	}

	if err := w.repo.Archive(ctx, job.ID, OutcomeCompleted, ""); err != nil {
		log.Error("archive completed job failed", zap.Error(err))
		return
	}

	log.Info("job completed")
}
