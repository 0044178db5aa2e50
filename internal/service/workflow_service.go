package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamflow/internal/api/dto"
	"teamflow/internal/core/ports"
	"teamflow/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Authorizer checks workspace access for a user.
type Authorizer interface {
	AuthorizeWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error
}

type WorkflowService interface {
	CreateWorkflow(ctx context.Context, userID uuid.UUID, req dto.CreateWorkflowRequest) (*domain.Workflow, error)
	GetWorkflow(ctx context.Context, userID, workflowID uuid.UUID) (*domain.Workflow, error)
	ListWorkflows(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.Workflow, error)
	UpdateWorkflow(ctx context.Context, userID, workflowID uuid.UUID, req dto.UpdateWorkflowRequest) (*domain.Workflow, error)
	DeleteWorkflow(ctx context.Context, userID, workflowID uuid.UUID) error

	// InvokeWorkflow records a running run and queues it. It returns as soon
	// as the run is queued; the outcome is read back through GetRun.
	InvokeWorkflow(ctx context.Context, userID, workflowID uuid.UUID, payload map[string]any) (*domain.WorkflowRun, error)

	// FireEvent starts one run per active workflow in the workspace that
	// listens to event.
	FireEvent(ctx context.Context, userID, workspaceID uuid.UUID, event string, payload map[string]any) ([]uuid.UUID, error)

	GetRun(ctx context.Context, userID, runID uuid.UUID) (*domain.WorkflowRun, error)
	ListRuns(ctx context.Context, userID, workflowID uuid.UUID) ([]domain.WorkflowRun, error)
}

// The Implementation
type workflowService struct {
	workflows ports.WorkflowRepository
	runs      ports.RunRepository
	queue     ports.RunQueue
	auth      Authorizer
	logger    logrus.FieldLogger
}

// Constructor
func NewWorkflowService(
	workflows ports.WorkflowRepository,
	runs ports.RunRepository,
	queue ports.RunQueue,
	auth Authorizer,
	logger logrus.FieldLogger,
) WorkflowService {
	return &workflowService{
		workflows: workflows,
		runs:      runs,
		queue:     queue,
		auth:      auth,
		logger:    logger.WithField("component", "workflow_service"),
	}
}

func (s *workflowService) CreateWorkflow(ctx context.Context, userID uuid.UUID, req dto.CreateWorkflowRequest) (*domain.Workflow, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	if err := validateTrigger(req.Trigger); err != nil {
		return nil, err
	}
	actions, err := toActions(req.Actions)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, domain.Invalid("at least one action is required")
	}

	if err := s.auth.AuthorizeWorkspace(ctx, userID, req.WorkspaceID); err != nil {
		return nil, err
	}

	// 1. Build the entity
	wf := domain.NewWorkflow(req.WorkspaceID, userID, name, req.Trigger.Type)
	wf.Description = req.Description
	if req.IsActive != nil {
		wf.IsActive = *req.IsActive
	}
	if err := wf.SetTriggerSettings(req.Trigger.Config); err != nil {
		return nil, domain.Invalid("trigger config: " + err.Error())
	}
	if err := wf.SetActions(actions); err != nil {
		return nil, domain.Invalid("actions: " + err.Error())
	}

	// 2. Save
	if err := s.workflows.Create(ctx, wf); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"workflow_id":  wf.ID,
		"workspace_id": wf.WorkspaceID,
		"trigger":      wf.TriggerType,
	}).Info("workflow created")
	return wf, nil
}

func (s *workflowService) GetWorkflow(ctx context.Context, userID, workflowID uuid.UUID) (*domain.Workflow, error) {
	return s.loadAuthorized(ctx, userID, workflowID)
}

func (s *workflowService) ListWorkflows(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.Workflow, error) {
	if err := s.auth.AuthorizeWorkspace(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	return s.workflows.ListByWorkspace(ctx, workspaceID)
}

func (s *workflowService) UpdateWorkflow(ctx context.Context, userID, workflowID uuid.UUID, req dto.UpdateWorkflowRequest) (*domain.Workflow, error) {
	wf, err := s.loadAuthorized(ctx, userID, workflowID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.Invalid("name cannot be empty")
		}
		wf.Name = name
	}
	if req.Description != nil {
		wf.Description = *req.Description
	}
	if req.Trigger != nil {
		if err := validateTrigger(*req.Trigger); err != nil {
			return nil, err
		}
		wf.TriggerType = req.Trigger.Type
		if err := wf.SetTriggerSettings(req.Trigger.Config); err != nil {
			return nil, domain.Invalid("trigger config: " + err.Error())
		}
	}
	if req.Actions != nil {
		actions, err := toActions(req.Actions)
		if err != nil {
			return nil, err
		}
		if len(actions) == 0 {
			return nil, domain.Invalid("at least one action is required")
		}
		if err := wf.SetActions(actions); err != nil {
			return nil, domain.Invalid("actions: " + err.Error())
		}
	}
	if req.IsActive != nil {
		wf.IsActive = *req.IsActive
	}

	wf.UpdatedAt = time.Now()
	if err := s.workflows.Update(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *workflowService) DeleteWorkflow(ctx context.Context, userID, workflowID uuid.UUID) error {
	if _, err := s.loadAuthorized(ctx, userID, workflowID); err != nil {
		return err
	}
	if err := s.workflows.Delete(ctx, workflowID); err != nil {
		return err
	}
	s.logger.WithField("workflow_id", workflowID).Info("workflow deleted with its runs")
	return nil
}

func (s *workflowService) InvokeWorkflow(ctx context.Context, userID, workflowID uuid.UUID, payload map[string]any) (*domain.WorkflowRun, error) {
	wf, err := s.loadAuthorized(ctx, userID, workflowID)
	if err != nil {
		return nil, err
	}
	if !wf.IsActive {
		return nil, domain.Denied("workflow is not active")
	}
	return s.startRun(ctx, wf, &userID, payload)
}

func (s *workflowService) FireEvent(ctx context.Context, userID, workspaceID uuid.UUID, event string, payload map[string]any) ([]uuid.UUID, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return nil, domain.Invalid("event is required")
	}
	if err := s.auth.AuthorizeWorkspace(ctx, userID, workspaceID); err != nil {
		return nil, err
	}

	candidates, err := s.workflows.ListActiveByTrigger(ctx, workspaceID, domain.TriggerEvent)
	if err != nil {
		return nil, err
	}

	runIDs := []uuid.UUID{}
	var errs []error
	for i := range candidates {
		wf := &candidates[i]
		if !wf.ListensTo(event) {
			continue
		}
		run, err := s.startRun(ctx, wf, &userID, payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("workflow %s: %w", wf.ID, err))
			continue
		}
		runIDs = append(runIDs, run.ID)
	}

	s.logger.WithFields(logrus.Fields{
		"workspace_id": workspaceID,
		"event":        event,
		"runs":         len(runIDs),
	}).Info("event fired")
	return runIDs, errors.Join(errs...)
}

func (s *workflowService) GetRun(ctx context.Context, userID, runID uuid.UUID) (*domain.WorkflowRun, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadAuthorized(ctx, userID, run.WorkflowID); err != nil {
		if errors.Is(err, domain.ErrDefinitionNotFound) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func (s *workflowService) ListRuns(ctx context.Context, userID, workflowID uuid.UUID) ([]domain.WorkflowRun, error) {
	if _, err := s.loadAuthorized(ctx, userID, workflowID); err != nil {
		return nil, err
	}
	return s.runs.ListByWorkflow(ctx, workflowID)
}

// startRun persists a running run and hands it to the queue. If the queue
// refuses it the run is closed as failed so it never stays running.
func (s *workflowService) startRun(ctx context.Context, wf *domain.Workflow, triggeredBy *uuid.UUID, payload map[string]any) (*domain.WorkflowRun, error) {
	run, err := domain.NewRun(wf.ID, triggeredBy, payload)
	if err != nil {
		return nil, domain.Invalid("trigger data: " + err.Error())
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"workflow_id": wf.ID, "run_id": run.ID})

	if err := s.queue.Push(ctx, run.ID.String()); err != nil {
		log.WithError(err).Error("failed to queue run")
		completion := domain.RunCompletion{
			Status:       domain.RunFailed,
			ErrorMessage: fmt.Sprintf("failed to queue run: %v", err),
			CompletedAt:  time.Now().UTC(),
		}
		if ferr := s.runs.Finish(context.WithoutCancel(ctx), run.ID, completion); ferr != nil {
			log.WithError(ferr).Error("failed to close unqueued run")
		}
		return nil, err
	}

	log.Info("run queued")
	return run, nil
}

func (s *workflowService) loadAuthorized(ctx context.Context, userID, workflowID uuid.UUID) (*domain.Workflow, error) {
	wf, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.AuthorizeWorkspace(ctx, userID, wf.WorkspaceID); err != nil {
		return nil, err
	}
	return wf, nil
}

func validateTrigger(t dto.TriggerDTO) error {
	if !t.Type.Valid() {
		return domain.Invalid(fmt.Sprintf("unknown trigger type %q", t.Type))
	}
	if t.Type == domain.TriggerEvent {
		name, _ := t.Config["event"].(string)
		if strings.TrimSpace(name) == "" {
			return domain.Invalid("event triggers need trigger.config.event")
		}
	}
	return nil
}

// Action types are not checked against the registry here: an unknown type
// is stored and fails the run that reaches it.
func toActions(in []dto.ActionDTO) ([]domain.Action, error) {
	out := make([]domain.Action, 0, len(in))
	for i, a := range in {
		kind := strings.TrimSpace(a.Type)
		if kind == "" {
			return nil, domain.Invalid(fmt.Sprintf("action %d has no type", i))
		}
		out = append(out, domain.Action{Type: kind, Config: a.Config})
	}
	return out, nil
}
