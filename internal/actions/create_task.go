package actions

import (
	"context"

	"teamflow/internal/core/ports"
	"teamflow/internal/domain"
)

const KindCreateTask = "create_task"

// CreateTask adds a task to the workflow's workspace.
type CreateTask struct {
	store ports.TaskStore
}

func NewCreateTask(store ports.TaskStore) *CreateTask {
	return &CreateTask{store: store}
}

func (h *CreateTask) Execute(ctx context.Context, req Request) (any, error) {
	title, err := requiredString(req.Config, "title")
	if err != nil {
		return nil, err
	}
	description, err := optionalString(req.Config, "description")
	if err != nil {
		return nil, err
	}
	priority, err := optionalString(req.Config, "priority")
	if err != nil {
		return nil, err
	}
	assignee, err := optionalUUID(req.Config, "assigneeId")
	if err != nil {
		return nil, err
	}
	due, err := optionalTime(req.Config, "dueDate")
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		WorkspaceID: req.Scope.WorkspaceID,
		Title:       title,
		Description: description,
		Status:      domain.TaskTodo,
		Priority:    priority,
		AssigneeID:  assignee,
		DueDate:     due,
		CreatedBy:   req.Scope.UserID,
	}
	if err := h.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return map[string]any{"message": "Task created", "taskId": task.ID.String()}, nil
}
