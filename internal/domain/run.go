package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeError   OutcomeKind = "error"
)

// ActionOutcome is one entry of a run's result list.
type ActionOutcome struct {
	Action string      `json:"action"`
	Result OutcomeKind `json:"result"`
	Data   any         `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// WorkflowRun is the execution record of one invocation.
type WorkflowRun struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	WorkflowID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"workflow_id"`
	TriggeredBy *uuid.UUID `gorm:"type:uuid;index" json:"triggered_by,omitempty"`

	TriggerData datatypes.JSON `gorm:"type:jsonb" json:"trigger_data,omitempty"`

	// State
	Status       RunStatus      `gorm:"type:varchar(20);index;not null" json:"status"`
	Result       datatypes.JSON `gorm:"type:jsonb" json:"result,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`

	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// --- FACTORY ---
func NewRun(workflowID uuid.UUID, triggeredBy *uuid.UUID, payload map[string]any) (*WorkflowRun, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &WorkflowRun{
		ID:          uuid.New(),
		WorkflowID:  workflowID,
		TriggeredBy: triggeredBy,
		TriggerData: raw,
		Status:      RunRunning,
		StartedAt:   time.Now().UTC(),
	}, nil
}

// --- METHODS ---

func (r *WorkflowRun) IsFinished() bool {
	return r.Status.Terminal()
}

func (r *WorkflowRun) Payload() (map[string]any, error) {
	payload := map[string]any{}
	if len(r.TriggerData) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(r.TriggerData, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *WorkflowRun) Outcomes() ([]ActionOutcome, error) {
	var outcomes []ActionOutcome
	if len(r.Result) == 0 {
		return outcomes, nil
	}
	if err := json.Unmarshal(r.Result, &outcomes); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// RunScope is what an action handler knows about the run it belongs to.
type RunScope struct {
	RunID       uuid.UUID
	WorkflowID  uuid.UUID
	WorkspaceID uuid.UUID
	UserID      *uuid.UUID
	Payload     map[string]any
}

// RunCompletion is the single terminal write the executor performs.
type RunCompletion struct {
	Status       RunStatus
	Result       []ActionOutcome
	ErrorMessage string
	CompletedAt  time.Time
}
