package dto

import (
	"teamflow/internal/domain"

	"github.com/google/uuid"
)

type ActionDTO struct {
	Type   string         `json:"type" binding:"required"`
	Config map[string]any `json:"config"`
}

type TriggerDTO struct {
	Type   domain.TriggerType `json:"type" binding:"required"`
	Config map[string]any     `json:"config"`
}

type CreateWorkflowRequest struct {
	WorkspaceID uuid.UUID   `json:"workspace_id" binding:"required"`
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	Trigger     TriggerDTO  `json:"trigger" binding:"required"`
	Actions     []ActionDTO `json:"actions" binding:"required,min=1,dive"`
	// Defaults to true when omitted
	IsActive *bool `json:"is_active"`
}

// UpdateWorkflowRequest is a partial update; nil fields are left alone.
type UpdateWorkflowRequest struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Trigger     *TriggerDTO `json:"trigger"`
	Actions     []ActionDTO `json:"actions" binding:"omitempty,min=1,dive"`
	IsActive    *bool       `json:"is_active"`
}

type RunWorkflowRequest struct {
	TriggerData map[string]any `json:"trigger_data"`
}

type FireEventRequest struct {
	Event   string         `json:"event" binding:"required"`
	Payload map[string]any `json:"payload"`
}
