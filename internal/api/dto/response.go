package dto

import (
	"teamflow/internal/domain"

	"github.com/google/uuid"
)

type RunWorkflowResponse struct {
	RunID  uuid.UUID        `json:"run_id"`
	Status domain.RunStatus `json:"status"`
}

type FireEventResponse struct {
	RunIDs []uuid.UUID `json:"run_ids"`
}

type ActionKindsResponse struct {
	Actions []string `json:"actions"`
}
