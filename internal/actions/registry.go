package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"teamflow/internal/domain"
)

// Request is what a handler gets: its rendered config and the run it serves.
type Request struct {
	Kind   string
	Config map[string]any
	Scope  domain.RunScope
}

// Handler is the blueprint for any action that does work
type Handler interface {
	Execute(ctx context.Context, req Request) (any, error)
}

type HandlerFunc func(ctx context.Context, req Request) (any, error)

func (f HandlerFunc) Execute(ctx context.Context, req Request) (any, error) {
	return f(ctx, req)
}

// Registry holds all our executable actions, keyed by action type.
// It is populated at startup and read concurrently by workers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(kind string, handler Handler) error {
	if kind == "" {
		return errors.New("action kind is required")
	}
	if handler == nil {
		return fmt.Errorf("action %q: handler is nil", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateHandler, kind)
	}
	r.handlers[kind] = handler
	return nil
}

func (r *Registry) Lookup(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[kind]
	return handler, ok
}

func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Dispatch runs one action. Failures come back as
// *domain.UnsupportedActionKindError or *domain.ActionExecutionError.
func (r *Registry) Dispatch(ctx context.Context, action domain.Action, scope domain.RunScope) (result any, err error) {
	handler, ok := r.Lookup(action.Type)
	if !ok {
		return nil, &domain.UnsupportedActionKindError{Kind: action.Type}
	}

	config, err := RenderConfig(action.Config, templateContext(scope))
	if err != nil {
		return nil, &domain.ActionExecutionError{
			Kind:    action.Type,
			Message: fmt.Sprintf("invalid action config: %v", err),
			Err:     err,
		}
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = &domain.ActionExecutionError{
				Kind:    action.Type,
				Message: fmt.Sprintf("action panicked: %v", recovered),
			}
		}
	}()

	result, err = handler.Execute(ctx, Request{Kind: action.Type, Config: config, Scope: scope})
	if err != nil {
		return nil, classify(action.Type, err)
	}
	return result, nil
}

func classify(kind string, err error) error {
	var execErr *domain.ActionExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}
	var unsupported *domain.UnsupportedActionKindError
	if errors.As(err, &unsupported) {
		return unsupported
	}
	return domain.NewActionError(kind, err)
}
