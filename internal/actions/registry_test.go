package actions

import (
	"context"
	"errors"
	"testing"

	"teamflow/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler() Handler {
	return HandlerFunc(func(_ context.Context, req Request) (any, error) {
		return req.Config, nil
	})
}

func testScope() domain.RunScope {
	user := uuid.New()
	return domain.RunScope{
		RunID:       uuid.New(),
		WorkflowID:  uuid.New(),
		WorkspaceID: uuid.New(),
		UserID:      &user,
		Payload:     map[string]any{"title": "Quarterly report", "count": 3},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("echo", echoHandler()))

	err := r.Register("echo", echoHandler())
	assert.ErrorIs(t, err, domain.ErrDuplicateHandler)

	assert.Error(t, r.Register("", echoHandler()))
	assert.Error(t, r.Register("nil", nil))

	require.NoError(t, r.Register("alpha", echoHandler()))
	assert.Equal(t, []string{"alpha", "echo"}, r.Kinds())
}

func TestRegistry_DispatchUnknownKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Dispatch(context.Background(), domain.Action{Type: "not_a_real_action"}, testScope())

	var unsupported *domain.UnsupportedActionKindError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "not_a_real_action", unsupported.Kind)
	assert.Contains(t, err.Error(), "not_a_real_action")
}

func TestRegistry_DispatchWrapsHandlerErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("boom", HandlerFunc(func(context.Context, Request) (any, error) {
		return nil, errors.New("downstream rejected the call")
	})))

	_, err := r.Dispatch(context.Background(), domain.Action{Type: "boom"}, testScope())

	var execErr *domain.ActionExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "boom", execErr.Kind)
	assert.Equal(t, "downstream rejected the call", execErr.Error())
}

func TestRegistry_DispatchKeepsTypedErrors(t *testing.T) {
	r := NewRegistry()
	typed := &domain.ActionExecutionError{Kind: "typed", Message: "custom reason"}
	require.NoError(t, r.Register("typed", HandlerFunc(func(context.Context, Request) (any, error) {
		return nil, typed
	})))

	_, err := r.Dispatch(context.Background(), domain.Action{Type: "typed"}, testScope())
	assert.Same(t, typed, err)
}

func TestRegistry_DispatchRecoversPanics(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("panics", HandlerFunc(func(context.Context, Request) (any, error) {
		panic("nil map write")
	})))

	result, err := r.Dispatch(context.Background(), domain.Action{Type: "panics"}, testScope())

	assert.Nil(t, result)
	var execErr *domain.ActionExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "action panicked: nil map write", execErr.Message)
}

func TestRegistry_DispatchRendersTemplates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("echo", echoHandler()))
	scope := testScope()

	action := domain.Action{Type: "echo", Config: map[string]any{
		"title":  "Review: {{ trigger.title }}",
		"plain":  "no markup",
		"nested": map[string]any{"runs": []any{"{{ run.id }}", 7}},
		"html":   "{{ trigger.html }}",
	}}
	scope.Payload["html"] = "<b>bold</b>"

	out, err := r.Dispatch(context.Background(), action, scope)
	require.NoError(t, err)

	config := out.(map[string]any)
	assert.Equal(t, "Review: Quarterly report", config["title"])
	assert.Equal(t, "no markup", config["plain"])
	assert.Equal(t, []any{scope.RunID.String(), 7}, config["nested"].(map[string]any)["runs"])
	assert.Equal(t, "<b>bold</b>", config["html"])

	// the stored definition is never touched
	assert.Equal(t, "Review: {{ trigger.title }}", action.Config["title"])
}

func TestRegistry_DispatchBadTemplate(t *testing.T) {
	r := NewRegistry()
	called := false
	require.NoError(t, r.Register("echo", HandlerFunc(func(context.Context, Request) (any, error) {
		called = true
		return nil, nil
	})))

	_, err := r.Dispatch(context.Background(), domain.Action{
		Type:   "echo",
		Config: map[string]any{"title": "{% notatag %}"},
	}, testScope())

	var execErr *domain.ActionExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Message, "invalid action config")
	assert.False(t, called)
}
