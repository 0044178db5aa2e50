package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TriggerType string

const (
	TriggerTime   TriggerType = "time"
	TriggerEvent  TriggerType = "event"
	TriggerAPI    TriggerType = "api"
	TriggerManual TriggerType = "manual"
)

func (t TriggerType) Valid() bool {
	switch t {
	case TriggerTime, TriggerEvent, TriggerAPI, TriggerManual:
		return true
	}
	return false
}

// Action is one step of a workflow. Type selects the handler, Config is
// passed to it untouched apart from template rendering.
type Action struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// Workflow is the stored definition: trigger plus ordered actions.
type Workflow struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;index;not null" json:"workspace_id"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	TriggerType   TriggerType    `gorm:"type:varchar(20);index;not null" json:"trigger_type"`
	TriggerConfig datatypes.JSON `gorm:"type:jsonb" json:"trigger_config,omitempty"`

	// Order is execution order.
	Actions datatypes.JSON `gorm:"type:jsonb;not null" json:"actions"`

	// Set by NewWorkflow; no gorm default so false is stored as given.
	IsActive bool `gorm:"not null" json:"is_active"`

	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- FACTORY ---
func NewWorkflow(workspaceID, createdBy uuid.UUID, name string, trigger TriggerType) *Workflow {
	return &Workflow{
		ID:            uuid.New(),
		WorkspaceID:   workspaceID,
		Name:          name,
		TriggerType:   trigger,
		TriggerConfig: datatypes.JSON(`{}`),
		Actions:       datatypes.JSON(`[]`),
		IsActive:      true,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
	}
}

// --- METHODS ---

func (w *Workflow) ActionList() ([]Action, error) {
	var actions []Action
	if len(w.Actions) == 0 {
		return actions, nil
	}
	if err := json.Unmarshal(w.Actions, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func (w *Workflow) SetActions(actions []Action) error {
	if actions == nil {
		actions = []Action{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	w.Actions = raw
	return nil
}

func (w *Workflow) TriggerSettings() (map[string]any, error) {
	settings := map[string]any{}
	if len(w.TriggerConfig) == 0 {
		return settings, nil
	}
	if err := json.Unmarshal(w.TriggerConfig, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (w *Workflow) SetTriggerSettings(settings map[string]any) error {
	if settings == nil {
		settings = map[string]any{}
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	w.TriggerConfig = raw
	return nil
}

// ListensTo reports whether an event-triggered workflow reacts to the named event.
func (w *Workflow) ListensTo(event string) bool {
	if w.TriggerType != TriggerEvent {
		return false
	}
	settings, err := w.TriggerSettings()
	if err != nil {
		return false
	}
	name, _ := settings["event"].(string)
	return name != "" && name == event
}
