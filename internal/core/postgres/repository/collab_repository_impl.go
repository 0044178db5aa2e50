package repository

import (
	"context"
	"errors"
	"time"

	"teamflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollabRepository is the slice of the suite's data store that workflow
// actions and auth need: tasks, messages, documents, users, memberships.
type CollabRepository struct {
	db *gorm.DB
}

// NewCollabRepository creates a new instance of CollabRepository
func NewCollabRepository(db *gorm.DB) *CollabRepository {
	return &CollabRepository{db: db}
}

func (r *CollabRepository) CreateTask(ctx context.Context, task *domain.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = domain.TaskTodo
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// PostMessage only accepts channels of workspaceID; a channel elsewhere is
// reported as not found.
func (r *CollabRepository) PostMessage(ctx context.Context, workspaceID uuid.UUID, msg *domain.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&domain.Channel{}).
			Where("id = ? AND workspace_id = ?", msg.ChannelID, workspaceID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrChannelNotFound
		}

		if msg.ID == uuid.Nil {
			msg.ID = uuid.New()
		}
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now().UTC()
		}
		return tx.Create(msg).Error
	})
}

func (r *CollabRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *CollabRepository) UpdateUser(ctx context.Context, userID uuid.UUID, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *CollabRepository) IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	var member domain.WorkspaceMember
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
