package domain

import (
	"time"

	"github.com/google/uuid"
)

// Collaboration records the built-in actions write to. The rest of the
// suite owns their full lifecycle; only the columns actions touch live here.

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"type:varchar(200)" json:"name"`
	Title     string    `gorm:"type:varchar(200)" json:"title,omitempty"`
	AvatarURL string    `gorm:"type:text" json:"avatar_url,omitempty"`
	Status    string    `gorm:"type:varchar(50)" json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WorkspaceMember struct {
	WorkspaceID uuid.UUID `gorm:"type:uuid;primaryKey" json:"workspace_id"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role        string    `gorm:"type:varchar(20);default:'member'" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type Channel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;index;not null" json:"workspace_id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Message struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	ChannelID uuid.UUID  `gorm:"type:uuid;index;not null" json:"channel_id"`
	UserID    *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;index;not null" json:"workspace_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Status      TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
	Priority    string     `gorm:"type:varchar(20)" json:"priority,omitempty"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Document struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;index;not null" json:"workspace_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Content     string     `gorm:"type:text" json:"content,omitempty"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
