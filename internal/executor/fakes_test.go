package executor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"teamflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type fakeWorkflows struct {
	mu        sync.Mutex
	workflows map[uuid.UUID]domain.Workflow
	err       error
}

func newFakeWorkflows() *fakeWorkflows {
	return &fakeWorkflows{workflows: map[uuid.UUID]domain.Workflow{}}
}

func (f *fakeWorkflows) add(w *domain.Workflow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workflows[w.ID] = *w
}

func (f *fakeWorkflows) Create(_ context.Context, w *domain.Workflow) error {
	f.add(w)
	return nil
}

func (f *fakeWorkflows) GetByID(_ context.Context, id uuid.UUID) (*domain.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.workflows[id]
	if !ok {
		return nil, domain.ErrDefinitionNotFound
	}
	return &w, nil
}

func (f *fakeWorkflows) ListByWorkspace(context.Context, uuid.UUID) ([]domain.Workflow, error) {
	return nil, nil
}

func (f *fakeWorkflows) ListActiveByTrigger(context.Context, uuid.UUID, domain.TriggerType) ([]domain.Workflow, error) {
	return nil, nil
}

func (f *fakeWorkflows) Update(_ context.Context, w *domain.Workflow) error {
	f.add(w)
	return nil
}

func (f *fakeWorkflows) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.workflows, id)
	return nil
}

type fakeRuns struct {
	mu         sync.Mutex
	runs       map[uuid.UUID]domain.WorkflowRun
	getErr     error
	finishErrs []error
	finishes   int
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: map[uuid.UUID]domain.WorkflowRun{}}
}

func (f *fakeRuns) Create(_ context.Context, run *domain.WorkflowRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = *run
	return nil
}

func (f *fakeRuns) GetByID(_ context.Context, id uuid.UUID) (*domain.WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	run, ok := f.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return &run, nil
}

func (f *fakeRuns) ListByWorkflow(_ context.Context, workflowID uuid.UUID) ([]domain.WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.WorkflowRun
	for _, run := range f.runs {
		if run.WorkflowID == workflowID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (f *fakeRuns) FailRunning(_ context.Context, message string, completedAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, run := range f.runs {
		if run.Status != domain.RunRunning {
			continue
		}
		run.Status = domain.RunFailed
		run.ErrorMessage = message
		at := completedAt
		run.CompletedAt = &at
		f.runs[id] = run
		n++
	}
	return n, nil
}

func (f *fakeRuns) Finish(_ context.Context, id uuid.UUID, c domain.RunCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes++
	if len(f.finishErrs) > 0 {
		err := f.finishErrs[0]
		f.finishErrs = f.finishErrs[1:]
		if err != nil {
			return err
		}
	}
	run, ok := f.runs[id]
	if !ok || run.Status != domain.RunRunning {
		return domain.ErrRunFinished
	}
	run.Status = c.Status
	run.ErrorMessage = c.ErrorMessage
	completedAt := c.CompletedAt
	run.CompletedAt = &completedAt
	if c.Result != nil {
		raw, err := json.Marshal(c.Result)
		if err != nil {
			return err
		}
		run.Result = datatypes.JSON(raw)
	}
	f.runs[id] = run
	return nil
}

// scriptedDispatcher fails the action whose config has "fail" set, and
// counts calls per run.
type scriptedDispatcher struct {
	mu    sync.Mutex
	calls map[uuid.UUID][]string
	hook  func(ctx context.Context, action domain.Action) (any, error)
}

func newScriptedDispatcher() *scriptedDispatcher {
	return &scriptedDispatcher{calls: map[uuid.UUID][]string{}}
}

func (d *scriptedDispatcher) Dispatch(ctx context.Context, action domain.Action, scope domain.RunScope) (any, error) {
	d.mu.Lock()
	d.calls[scope.RunID] = append(d.calls[scope.RunID], action.Type)
	d.mu.Unlock()

	if d.hook != nil {
		return d.hook(ctx, action)
	}
	if reason, ok := action.Config["fail"].(string); ok {
		return nil, &domain.ActionExecutionError{Kind: action.Type, Message: reason}
	}
	if reason, ok := scope.Payload["fail"].(string); ok && action.Config["payloadFail"] == true {
		return nil, &domain.ActionExecutionError{Kind: action.Type, Message: reason}
	}
	return map[string]any{"ok": action.Type}, nil
}

func (d *scriptedDispatcher) callsFor(runID uuid.UUID) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls[runID]...)
}
