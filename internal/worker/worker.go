package worker

import (
	"context"
	"sync"
	"time"

	"teamflow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunExecutor is the part of the executor the pool needs
type RunExecutor interface {
	Execute(ctx context.Context, runID uuid.UUID)
	Abandon(ctx context.Context, runID uuid.UUID, reason string)
}

// closableQueue loses its contents when the process exits.
type closableQueue interface {
	Close() []string
}

// durableQueue keeps its contents across restarts.
type durableQueue interface {
	Len(ctx context.Context) (int64, error)
}

// StoppedReason is recorded on runs still queued when the pool shut down.
const StoppedReason = "service stopped before run started"

// popBackoff slows the loop down when the queue itself is failing
const popBackoff = time.Second

type Worker struct {
	workerID string
	queue    ports.RunQueue
	executor RunExecutor
	logger   logrus.FieldLogger
	wg       sync.WaitGroup
}

func NewWorker(q ports.RunQueue, exec RunExecutor, logger logrus.FieldLogger) *Worker {
	id := uuid.New().String()
	return &Worker{
		workerID: id,
		queue:    q,
		executor: exec,
		logger:   logger.WithField("worker_id", id),
	}
}

// ProcessNextRun handles exactly ONE run lifecycle
func (w *Worker) ProcessNextRun(ctx context.Context) {
	// 1. POP: Wait until a run is available
	runIDStr, err := w.queue.Pop(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.WithError(err).Error("worker error popping from queue")
		select {
		case <-time.After(popBackoff):
		case <-ctx.Done():
		}
		return
	}

	// 2. PARSE
	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		w.logger.WithField("payload", runIDStr).Error("worker dropped malformed run id")
		return
	}

	// 3. EXECUTE: the executor records every outcome on the run itself
	w.executor.Execute(ctx, runID)
}

// StartPool launches multiple concurrent worker loops
func (w *Worker) StartPool(ctx context.Context, concurrency int) {
	w.logger.WithField("concurrency", concurrency).Info("starting worker pool")

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go func(threadID int) {
			defer w.wg.Done()
			log := w.logger.WithField("thread", threadID)
			log.Debug("worker thread started")
			for {
				select {
				case <-ctx.Done():
					log.Debug("worker thread shutting down")
					return
				default:
					w.ProcessNextRun(ctx)
				}
			}
		}(i)
	}
}

// Wait blocks until every pool goroutine has returned. Runs in flight when
// ctx was cancelled are finished (as failed, if their actions honour ctx)
// before their goroutine exits.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// FailPending is called after Wait. Runs left in an in-process queue are
// failed with StoppedReason; a durable queue is left for the next start.
// Returns the number of runs failed.
func (w *Worker) FailPending(ctx context.Context) int {
	switch q := w.queue.(type) {
	case closableQueue:
		failed := 0
		for _, raw := range q.Close() {
			runID, err := uuid.Parse(raw)
			if err != nil {
				w.logger.WithField("payload", raw).Error("worker dropped malformed run id")
				continue
			}
			w.executor.Abandon(ctx, runID, StoppedReason)
			failed++
		}
		if failed > 0 {
			w.logger.WithField("runs", failed).Warn("failed runs that were still queued at shutdown")
		}
		return failed
	case durableQueue:
		n, err := q.Len(ctx)
		if err != nil {
			w.logger.WithError(err).Warn("could not read queue depth at shutdown")
			return 0
		}
		w.logger.WithField("runs", n).Info("runs left queued for the next start")
	}
	return 0
}
