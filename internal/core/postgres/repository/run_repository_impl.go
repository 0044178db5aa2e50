package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"teamflow/internal/core/ports"
	"teamflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new instance of RunRepository
func NewRunRepository(db *gorm.DB) ports.RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *domain.WorkflowRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowRun, error) {
	var run domain.WorkflowRun
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]domain.WorkflowRun, error) {
	var runs []domain.WorkflowRun
	err := r.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("started_at DESC").
		Find(&runs).Error
	return runs, err
}

// Finish is the only write a run gets after creation. The status check in the
// WHERE clause makes a second terminal transition a no-op reported as
// domain.ErrRunFinished, so a run can never flip from failed to completed.
func (r *runRepository) Finish(ctx context.Context, id uuid.UUID, completion domain.RunCompletion) error {
	updates := map[string]interface{}{
		"status":        completion.Status,
		"error_message": completion.ErrorMessage,
		"completed_at":  completion.CompletedAt,
	}
	if completion.Result != nil {
		raw, err := json.Marshal(completion.Result)
		if err != nil {
			return err
		}
		updates["result"] = datatypes.JSON(raw)
	}

	result := r.db.WithContext(ctx).
		Model(&domain.WorkflowRun{}).
		Where("id = ? AND status = ?", id, domain.RunRunning).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.ErrRunFinished
	}

	return nil
}

// FailRunning closes out runs orphaned by a process that held them in memory.
func (r *runRepository) FailRunning(ctx context.Context, message string, completedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.WorkflowRun{}).
		Where("status = ?", domain.RunRunning).
		Updates(map[string]interface{}{
			"status":        domain.RunFailed,
			"error_message": message,
			"completed_at":  completedAt,
		})
	return result.RowsAffected, result.Error
}
