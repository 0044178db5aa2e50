package actions

import (
	"fmt"
	"strings"

	"teamflow/internal/domain"

	"github.com/flosch/pongo2/v4"
)

// templateContext exposes the trigger payload and run identifiers to
// config templates, e.g. "New ticket: {{ trigger.title }}".
func templateContext(scope domain.RunScope) pongo2.Context {
	run := map[string]any{
		"id":           scope.RunID.String(),
		"workflow_id":  scope.WorkflowID.String(),
		"workspace_id": scope.WorkspaceID.String(),
	}
	if scope.UserID != nil {
		run["user_id"] = scope.UserID.String()
	}
	payload := scope.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return pongo2.Context{"trigger": payload, "run": run}
}

func isTemplate(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

// RenderString renders s when it carries template markup and returns it
// untouched otherwise. Output is not HTML-escaped.
func RenderString(s string, ctx pongo2.Context) (string, error) {
	if !isTemplate(s) {
		return s, nil
	}
	tpl, err := pongo2.FromString("{% autoescape off %}" + s + "{% endautoescape %}")
	if err != nil {
		return "", err
	}
	return tpl.Execute(ctx)
}

// RenderConfig returns a copy of config with every template string rendered,
// descending into nested maps and lists. The input is never modified.
func RenderConfig(config map[string]any, ctx pongo2.Context) (map[string]any, error) {
	out := make(map[string]any, len(config))
	for key, value := range config {
		rendered, err := renderValue(value, ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = rendered
	}
	return out, nil
}

func renderValue(value any, ctx pongo2.Context) (any, error) {
	switch v := value.(type) {
	case string:
		return RenderString(v, ctx)
	case map[string]any:
		return RenderConfig(v, ctx)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			rendered, err := renderValue(item, ctx)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return value, nil
	}
}
