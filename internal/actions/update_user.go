package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"teamflow/internal/core/ports"
	"teamflow/internal/domain"

	"github.com/google/uuid"
)

const KindUpdateUser = "update_user"

// updatableUserFields maps config keys to user columns.
var updatableUserFields = map[string]string{
	"name":      "name",
	"title":     "title",
	"avatarUrl": "avatar_url",
	"status":    "status",
}

// UpdateUser applies a partial update to one member of the run's workspace.
// Without a userId the invoking user is updated. Users outside the workspace
// are reported as not found.
type UpdateUser struct {
	store ports.UserStore
}

func NewUpdateUser(store ports.UserStore) *UpdateUser {
	return &UpdateUser{store: store}
}

func (h *UpdateUser) Execute(ctx context.Context, req Request) (any, error) {
	userID, err := h.target(req)
	if err != nil {
		return nil, err
	}

	updates, err := objectParam(req.Config, "updates")
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, errors.New("updates is required")
	}

	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string]any, len(updates))
	for _, key := range keys {
		column, ok := updatableUserFields[key]
		if !ok {
			return nil, fmt.Errorf("field %q cannot be updated", key)
		}
		value, ok := updates[key].(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", key)
		}
		fields[column] = value
	}

	member, err := h.store.IsMember(ctx, req.Scope.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrUserNotFound
	}

	if err := h.store.UpdateUser(ctx, userID, fields); err != nil {
		return nil, err
	}
	return map[string]any{"message": "User updated", "userId": userID.String(), "fields": keys}, nil
}

func (h *UpdateUser) target(req Request) (uuid.UUID, error) {
	id, err := optionalUUID(req.Config, "userId")
	if err != nil {
		return uuid.Nil, err
	}
	if id != nil {
		return *id, nil
	}
	if req.Scope.UserID != nil {
		return *req.Scope.UserID, nil
	}
	return uuid.Nil, errors.New("userId is required")
}
