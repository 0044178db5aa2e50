package repository

import (
	"context"
	"errors"

	"teamflow/internal/core/ports"
	"teamflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type workflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository creates a new instance of WorkflowRepository
func NewWorkflowRepository(db *gorm.DB) ports.WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) Create(ctx context.Context, workflow *domain.Workflow) error {
	return r.db.WithContext(ctx).Create(workflow).Error
}

func (r *workflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	var workflow domain.Workflow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&workflow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDefinitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

func (r *workflowRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Workflow, error) {
	var workflows []domain.Workflow
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&workflows).Error
	return workflows, err
}

func (r *workflowRepository) ListActiveByTrigger(ctx context.Context, workspaceID uuid.UUID, trigger domain.TriggerType) ([]domain.Workflow, error) {
	var workflows []domain.Workflow
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND trigger_type = ? AND is_active = ?", workspaceID, trigger, true).
		Order("created_at ASC").
		Find(&workflows).Error
	return workflows, err
}

// Update writes the editable columns only; workspace and creator are fixed at creation.
func (r *workflowRepository) Update(ctx context.Context, workflow *domain.Workflow) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Workflow{}).
		Where("id = ?", workflow.ID).
		Updates(map[string]interface{}{
			"name":           workflow.Name,
			"description":    workflow.Description,
			"trigger_type":   workflow.TriggerType,
			"trigger_config": workflow.TriggerConfig,
			"actions":        workflow.Actions,
			"is_active":      workflow.IsActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDefinitionNotFound
	}
	return nil
}

func (r *workflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workflow_id = ?", id).Delete(&domain.WorkflowRun{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&domain.Workflow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrDefinitionNotFound
		}
		return nil
	})
}
