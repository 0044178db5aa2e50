package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"teamflow/internal/actions"
	"teamflow/internal/domain"
	"teamflow/internal/logging"
	"teamflow/internal/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	workflows  *fakeWorkflows
	runs       *fakeRuns
	dispatcher *scriptedDispatcher
	executor   *Executor
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		workflows:  newFakeWorkflows(),
		runs:       newFakeRuns(),
		dispatcher: newScriptedDispatcher(),
	}
	opts = append([]Option{WithMetrics(metrics.New(prometheus.NewRegistry()))}, opts...)
	h.executor = NewExecutor(h.workflows, h.runs, h.dispatcher, logging.Discard(), opts...)
	return h
}

func (h *harness) workflow(t *testing.T, actionList ...domain.Action) *domain.Workflow {
	t.Helper()
	w := domain.NewWorkflow(uuid.New(), uuid.New(), "wf", domain.TriggerManual)
	require.NoError(t, w.SetActions(actionList))
	h.workflows.add(w)
	return w
}

func (h *harness) start(t *testing.T, w *domain.Workflow, payload map[string]any) *domain.WorkflowRun {
	t.Helper()
	run, err := domain.NewRun(w.ID, nil, payload)
	require.NoError(t, err)
	require.NoError(t, h.runs.Create(context.Background(), run))
	return run
}

func (h *harness) reload(t *testing.T, id uuid.UUID) *domain.WorkflowRun {
	t.Helper()
	run, err := h.runs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return run
}

func outcomes(t *testing.T, run *domain.WorkflowRun) []domain.ActionOutcome {
	t.Helper()
	out, err := run.Outcomes()
	require.NoError(t, err)
	return out
}

// completed_at is set exactly when the status is terminal
func assertTerminalShape(t *testing.T, run *domain.WorkflowRun) {
	t.Helper()
	assert.Equal(t, run.Status.Terminal(), run.CompletedAt != nil,
		"status %s with completed_at %v", run.Status, run.CompletedAt)
}

func TestExecute_AllActionsSucceed(t *testing.T) {
	h := newHarness(t)
	w := h.workflow(t,
		domain.Action{Type: "send_message"},
		domain.Action{Type: "create_task"},
		domain.Action{Type: "send_email"},
	)
	run := h.start(t, w, nil)
	assertTerminalShape(t, run)

	h.executor.Execute(context.Background(), run.ID)

	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunCompleted, got.Status)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.StartedAt))
	assertTerminalShape(t, got)

	result := outcomes(t, got)
	require.Len(t, result, 3)
	for i, kind := range []string{"send_message", "create_task", "send_email"} {
		assert.Equal(t, kind, result[i].Action)
		assert.Equal(t, domain.OutcomeSuccess, result[i].Result)
		assert.Equal(t, map[string]any{"ok": kind}, result[i].Data)
	}
}

func TestExecute_StopsAtFirstFailure(t *testing.T) {
	const n = 5
	for k := 0; k < n; k++ {
		t.Run(fmt.Sprintf("fail_at_%d", k), func(t *testing.T) {
			h := newHarness(t)
			list := make([]domain.Action, n)
			for i := range list {
				list[i] = domain.Action{Type: fmt.Sprintf("step_%d", i)}
			}
			list[k].Config = map[string]any{"fail": "step exploded"}
			w := h.workflow(t, list...)
			run := h.start(t, w, nil)

			h.executor.Execute(context.Background(), run.ID)

			got := h.reload(t, run.ID)
			assert.Equal(t, domain.RunFailed, got.Status)
			assert.Equal(t, "step exploded", got.ErrorMessage)
			assertTerminalShape(t, got)

			result := outcomes(t, got)
			require.Len(t, result, k+1)
			for i := 0; i < k; i++ {
				assert.Equal(t, domain.OutcomeSuccess, result[i].Result)
			}
			assert.Equal(t, domain.OutcomeError, result[k].Result)
			assert.Equal(t, "step exploded", result[k].Error)
			assert.Len(t, h.dispatcher.callsFor(run.ID), k+1, "actions after the failure never run")
		})
	}
}

func TestExecute_UnknownActionKind(t *testing.T) {
	h := newHarness(t)
	registry := actions.NewRegistry()
	h.executor = NewExecutor(h.workflows, h.runs, registry, logging.Discard())

	w := h.workflow(t, domain.Action{Type: "not_a_real_action"}, domain.Action{Type: "create_task"})
	run := h.start(t, w, nil)

	h.executor.Execute(context.Background(), run.ID)

	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "Unsupported action type: not_a_real_action", got.ErrorMessage)
	result := outcomes(t, got)
	require.Len(t, result, 1)
	assert.Equal(t, "not_a_real_action", result[0].Action)
	assert.Equal(t, domain.OutcomeError, result[0].Result)
}

func TestExecute_WorkflowDeletedBeforeExecution(t *testing.T) {
	h := newHarness(t)
	w := h.workflow(t, domain.Action{Type: "create_task"})
	run := h.start(t, w, nil)
	require.NoError(t, h.workflows.Delete(context.Background(), w.ID))

	h.executor.Execute(context.Background(), run.ID)

	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "Workflow not found", got.ErrorMessage)
	assert.Empty(t, got.Result)
	assert.Empty(t, h.dispatcher.callsFor(run.ID))
	assertTerminalShape(t, got)
}

func TestExecute_WorkflowStoreError(t *testing.T) {
	h := newHarness(t)
	w := h.workflow(t, domain.Action{Type: "create_task"})
	run := h.start(t, w, nil)
	h.workflows.err = errors.New("connection reset")

	h.executor.Execute(context.Background(), run.ID)

	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "failed to load workflow: connection reset", got.ErrorMessage)
}

func TestExecute_PanicBecomesFailure(t *testing.T) {
	h := newHarness(t)
	calls := 0
	h.dispatcher.hook = func(context.Context, domain.Action) (any, error) {
		calls++
		if calls == 2 {
			panic("index out of range")
		}
		return "ok", nil
	}
	w := h.workflow(t, domain.Action{Type: "a"}, domain.Action{Type: "b"}, domain.Action{Type: "c"})
	run := h.start(t, w, nil)

	assert.NotPanics(t, func() { h.executor.Execute(context.Background(), run.ID) })

	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "unexpected error: index out of range", got.ErrorMessage)
	require.Len(t, outcomes(t, got), 1, "partial result keeps the actions that completed")
	assert.Equal(t, 2, calls)
}

func TestExecute_FinishedRunIsNotReExecuted(t *testing.T) {
	h := newHarness(t)
	w := h.workflow(t, domain.Action{Type: "create_task"})
	run := h.start(t, w, nil)

	h.executor.Execute(context.Background(), run.ID)
	h.executor.Execute(context.Background(), run.ID)

	assert.Len(t, h.dispatcher.callsFor(run.ID), 1)
	assert.Equal(t, 1, h.runs.finishes)
}

func TestExecute_UnknownRunIsIgnored(t *testing.T) {
	h := newHarness(t)
	assert.NotPanics(t, func() { h.executor.Execute(context.Background(), uuid.New()) })
	assert.Zero(t, h.runs.finishes)
}

func TestExecute_RunLoadErrorFailsRun(t *testing.T) {
	h := newHarness(t)
	w := h.workflow(t, domain.Action{Type: "create_task"})
	run := h.start(t, w, nil)
	h.runs.getErr = errors.New("db down")

	h.executor.Execute(context.Background(), run.ID)

	h.runs.getErr = nil
	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "failed to load run: db down", got.ErrorMessage)
	assertTerminalShape(t, got)
	assert.Empty(t, h.dispatcher.callsFor(run.ID))
}

func TestAbandon(t *testing.T) {
	h := newHarness(t)
	w := h.workflow(t, domain.Action{Type: "create_task"})
	pending := h.start(t, w, nil)
	done := h.start(t, w, nil)
	h.executor.Execute(context.Background(), done.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.executor.Abandon(ctx, pending.ID, "service stopped before run started")
	h.executor.Abandon(ctx, done.ID, "service stopped before run started")

	got := h.reload(t, pending.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "service stopped before run started", got.ErrorMessage)
	assertTerminalShape(t, got)

	assert.Equal(t, domain.RunCompleted, h.reload(t, done.ID).Status, "finished runs keep their outcome")
}

func TestExecute_ActionTimeout(t *testing.T) {
	h := newHarness(t, WithActionTimeout(20*time.Millisecond))
	h.dispatcher.hook = func(ctx context.Context, _ domain.Action) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	w := h.workflow(t, domain.Action{Type: "api_call"}, domain.Action{Type: "create_task"})
	run := h.start(t, w, nil)

	h.executor.Execute(context.Background(), run.ID)

	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "action timed out after 20ms", got.ErrorMessage)
	assert.Len(t, h.dispatcher.callsFor(run.ID), 1)
}

func TestExecute_ShutdownStillFinishesRun(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.dispatcher.hook = func(ctx context.Context, _ domain.Action) (any, error) {
		cancel()
		return nil, ctx.Err()
	}
	w := h.workflow(t, domain.Action{Type: "api_call"})
	run := h.start(t, w, nil)

	h.executor.Execute(ctx, run.ID)

	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, context.Canceled.Error(), got.ErrorMessage)
	assertTerminalShape(t, got)
}

func TestExecute_ResultWriteFailureFallsBack(t *testing.T) {
	h := newHarness(t)
	h.runs.finishErrs = []error{errors.New("value too long")}
	w := h.workflow(t, domain.Action{Type: "create_task"})
	run := h.start(t, w, nil)

	h.executor.Execute(context.Background(), run.ID)

	got := h.reload(t, run.ID)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "failed to record run result: value too long", got.ErrorMessage)
	assert.Equal(t, 2, h.runs.finishes)
}

func TestExecute_ConcurrentRunsAreIndependent(t *testing.T) {
	h := newHarness(t)
	w := h.workflow(t,
		domain.Action{Type: "send_message", Config: map[string]any{"payloadFail": true}},
		domain.Action{Type: "create_task"},
	)
	good := h.start(t, w, map[string]any{})
	bad := h.start(t, w, map[string]any{"fail": "invalid channel"})
	require.NotEqual(t, good.ID, bad.ID)

	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{good.ID, bad.ID} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			h.executor.Execute(context.Background(), id)
		}(id)
	}
	wg.Wait()

	gotGood := h.reload(t, good.ID)
	gotBad := h.reload(t, bad.ID)

	assert.Equal(t, domain.RunCompleted, gotGood.Status)
	assert.Len(t, outcomes(t, gotGood), 2)
	assert.Equal(t, domain.RunFailed, gotBad.Status)
	assert.Equal(t, "invalid channel", gotBad.ErrorMessage)
	assert.Len(t, outcomes(t, gotBad), 1)
}
