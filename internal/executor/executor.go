package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teamflow/internal/core/ports"
	"teamflow/internal/domain"
	"teamflow/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Executor turns a running run record into a terminal one by dispatching
// the workflow's actions in order.
type Executor struct {
	workflows     ports.WorkflowRepository
	runs          ports.RunRepository
	dispatcher    ports.ActionDispatcher
	metrics       *metrics.Metrics
	logger        logrus.FieldLogger
	actionTimeout time.Duration
	now           func() time.Time
}

type Option func(*Executor)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithActionTimeout bounds each action. Zero, the default, means none.
func WithActionTimeout(d time.Duration) Option {
	return func(e *Executor) { e.actionTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func NewExecutor(
	workflows ports.WorkflowRepository,
	runs ports.RunRepository,
	dispatcher ports.ActionDispatcher,
	logger logrus.FieldLogger,
	opts ...Option,
) *Executor {
	e := &Executor{
		workflows:  workflows,
		runs:       runs,
		dispatcher: dispatcher,
		logger:     logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute drives one run to completed or failed. It never returns an error:
// callers observe the outcome on the run record.
func (e *Executor) Execute(ctx context.Context, runID uuid.UUID) {
	log := e.logger.WithField("run_id", runID)

	run, err := e.runs.GetByID(ctx, runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		log.Warn("run no longer exists, skipping")
		return
	}
	if err != nil {
		log.WithError(err).Error("executor failed to load run")
		e.Abandon(ctx, runID, fmt.Sprintf("failed to load run: %v", err))
		return
	}
	// Terminal runs are never re-executed in place
	if run.IsFinished() {
		log.WithField("status", run.Status).Warn("run already finished, skipping")
		return
	}

	log = log.WithField("workflow_id", run.WorkflowID)
	e.metrics.RunStarted()
	log.Info("run started")

	completion := e.run(ctx, run, log)
	e.finish(ctx, run.ID, completion, log)
}

// Abandon fails a run that will not be executed. The guarded terminal write
// makes it a no-op for runs that already finished.
func (e *Executor) Abandon(ctx context.Context, runID uuid.UUID, reason string) {
	log := e.logger.WithField("run_id", runID)
	e.metrics.RunStarted()
	e.finish(ctx, runID, e.failed(nil, reason), log)
}

func (e *Executor) run(ctx context.Context, run *domain.WorkflowRun, log logrus.FieldLogger) (completion domain.RunCompletion) {
	var outcomes []domain.ActionOutcome

	defer func() {
		if recovered := recover(); recovered != nil {
			log.WithField("panic", recovered).Error("run aborted by panic")
			completion = e.failed(outcomes, fmt.Sprintf("unexpected error: %v", recovered))
		}
	}()

	workflow, err := e.workflows.GetByID(ctx, run.WorkflowID)
	if errors.Is(err, domain.ErrDefinitionNotFound) {
		return e.failed(nil, domain.ErrDefinitionNotFound.Error())
	}
	if err != nil {
		return e.failed(nil, fmt.Sprintf("failed to load workflow: %v", err))
	}

	actions, err := workflow.ActionList()
	if err != nil {
		return e.failed(nil, fmt.Sprintf("invalid workflow actions: %v", err))
	}
	payload, err := run.Payload()
	if err != nil {
		return e.failed(nil, fmt.Sprintf("invalid trigger payload: %v", err))
	}

	scope := domain.RunScope{
		RunID:       run.ID,
		WorkflowID:  workflow.ID,
		WorkspaceID: workflow.WorkspaceID,
		UserID:      run.TriggeredBy,
		Payload:     payload,
	}

	outcomes = make([]domain.ActionOutcome, 0, len(actions))
	for i, action := range actions {
		data, err := e.dispatch(ctx, action, scope)
		if err != nil {
			outcomes = append(outcomes, domain.ActionOutcome{
				Action: action.Type,
				Result: domain.OutcomeError,
				Error:  err.Error(),
			})
			log.WithFields(logrus.Fields{
				"action": action.Type,
				"step":   i,
			}).WithError(err).Warn("action failed, stopping run")
			return e.failed(outcomes, err.Error())
		}

		outcomes = append(outcomes, domain.ActionOutcome{
			Action: action.Type,
			Result: domain.OutcomeSuccess,
			Data:   data,
		})
		log.WithFields(logrus.Fields{"action": action.Type, "step": i}).Debug("action succeeded")
	}

	return domain.RunCompletion{
		Status:      domain.RunCompleted,
		Result:      outcomes,
		CompletedAt: e.now(),
	}
}

func (e *Executor) dispatch(ctx context.Context, action domain.Action, scope domain.RunScope) (any, error) {
	actionCtx := ctx
	cancel := func() {}
	if e.actionTimeout > 0 {
		actionCtx, cancel = context.WithTimeout(ctx, e.actionTimeout)
	}
	defer cancel()

	start := time.Now()
	data, err := e.dispatcher.Dispatch(actionCtx, action, scope)
	if err != nil {
		e.metrics.ObserveAction(action.Type, string(domain.OutcomeError), time.Since(start))
		if ctx.Err() == nil && errors.Is(actionCtx.Err(), context.DeadlineExceeded) {
			return nil, &domain.ActionExecutionError{
				Kind:    action.Type,
				Message: fmt.Sprintf("action timed out after %s", e.actionTimeout),
				Err:     err,
			}
		}
		return nil, err
	}
	e.metrics.ObserveAction(action.Type, string(domain.OutcomeSuccess), time.Since(start))
	return data, nil
}

func (e *Executor) failed(outcomes []domain.ActionOutcome, message string) domain.RunCompletion {
	return domain.RunCompletion{
		Status:       domain.RunFailed,
		Result:       outcomes,
		ErrorMessage: message,
		CompletedAt:  e.now(),
	}
}

// finish writes the terminal state. The write ignores cancellation of ctx
// so a shutdown mid-run still leaves the record terminal. If the full
// result cannot be stored the run is failed without it.
func (e *Executor) finish(ctx context.Context, runID uuid.UUID, completion domain.RunCompletion, log logrus.FieldLogger) {
	persistCtx := context.WithoutCancel(ctx)

	err := e.runs.Finish(persistCtx, runID, completion)
	if errors.Is(err, domain.ErrRunFinished) {
		log.Warn("run was already finished, terminal write skipped")
		e.metrics.RunFinished("duplicate")
		return
	}
	if err != nil {
		log.WithError(err).Error("failed to record run result, failing run without it")
		completion = domain.RunCompletion{
			Status:       domain.RunFailed,
			ErrorMessage: fmt.Sprintf("failed to record run result: %v", err),
			CompletedAt:  completion.CompletedAt,
		}
		if err := e.runs.Finish(persistCtx, runID, completion); err != nil {
			log.WithError(err).Error("failed to mark run as failed")
			e.metrics.RunFinished("unrecorded")
			return
		}
	}

	e.metrics.RunFinished(string(completion.Status))
	fields := logrus.Fields{"status": completion.Status, "actions": len(completion.Result)}
	if completion.Status == domain.RunFailed {
		log.WithFields(fields).WithField("error", completion.ErrorMessage).Warn("run failed")
		return
	}
	log.WithFields(fields).Info("run completed")
}
