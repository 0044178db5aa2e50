package ports

import (
	"context"
	"time"

	"teamflow/internal/domain"

	"github.com/google/uuid"
)

// RunQueue carries run IDs from the trigger surface to the worker pool
type RunQueue interface {
	// Push a run UUID to the "To-Do" list
	Push(ctx context.Context, runID string) error

	// Wait (Block) until a run UUID is available or ctx is done
	Pop(ctx context.Context) (string, error)
}

// MessageBroadcaster hands posted messages to the real-time transport
type MessageBroadcaster interface {
	PublishMessage(ctx context.Context, event domain.MessagePostedEvent) error
}

// WorkflowRepository is the workflow definition store
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *domain.Workflow) error

	// GetByID returns domain.ErrDefinitionNotFound for a missing workflow
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error)

	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Workflow, error)

	// Active workflows of one trigger type, used for event fan-out
	ListActiveByTrigger(ctx context.Context, workspaceID uuid.UUID, trigger domain.TriggerType) ([]domain.Workflow, error)

	Update(ctx context.Context, workflow *domain.Workflow) error

	// Delete removes the workflow and all of its runs in one transaction
	Delete(ctx context.Context, id uuid.UUID) error
}

// RunRepository is the run record store
type RunRepository interface {
	Create(ctx context.Context, run *domain.WorkflowRun) error

	// GetByID returns domain.ErrRunNotFound for a missing run
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowRun, error)

	// Newest first
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]domain.WorkflowRun, error)

	// Finish performs the terminal transition.
	// "Set Status=? ... WHERE ID=? AND Status='running'"; domain.ErrRunFinished if nothing matched
	Finish(ctx context.Context, id uuid.UUID, completion domain.RunCompletion) error

	// FailRunning fails every run still running and returns how many it
	// touched. Only safe when no worker can be executing them.
	FailRunning(ctx context.Context, message string, completedAt time.Time) (int64, error)
}

// ActionDispatcher executes one action on behalf of a run
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action domain.Action, scope domain.RunScope) (any, error)
}

// MembershipRepository answers workspace access questions for auth
type MembershipRepository interface {
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
}

// Collaboration stores the built-in actions write to

type TaskStore interface {
	CreateTask(ctx context.Context, task *domain.Task) error
}

type MessageStore interface {
	// PostMessage returns domain.ErrChannelNotFound when the channel does not
	// exist in workspaceID
	PostMessage(ctx context.Context, workspaceID uuid.UUID, msg *domain.Message) error
}

type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *domain.Document) error
}

type UserStore interface {
	// UpdateUser returns domain.ErrUserNotFound when no row matched
	UpdateUser(ctx context.Context, userID uuid.UUID, fields map[string]any) error

	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
}

// Mailer delivers email; success means "accepted", not delivered
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}
