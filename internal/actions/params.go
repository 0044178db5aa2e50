package actions

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func optionalString(config map[string]any, key string) (string, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return strings.TrimSpace(s), nil
}

func requiredString(config map[string]any, key string) (string, error) {
	s, err := optionalString(config, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

func requiredUUID(config map[string]any, key string) (uuid.UUID, error) {
	s, err := requiredString(config, key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q", key, s)
	}
	return id, nil
}

func optionalUUID(config map[string]any, key string) (*uuid.UUID, error) {
	s, err := optionalString(config, key)
	if err != nil || s == "" {
		return nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, s)
	}
	return &id, nil
}

// optionalTime accepts RFC 3339 timestamps and plain dates.
func optionalTime(config map[string]any, key string) (*time.Time, error) {
	s, err := optionalString(config, key)
	if err != nil || s == "" {
		return nil, err
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: %q", key, s)
}

// stringList accepts a single string, a comma separated string or a list of strings.
func stringList(config map[string]any, key string) ([]string, error) {
	var out []string
	switch v := config[key].(type) {
	case nil:
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must contain only strings", key)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	default:
		return nil, fmt.Errorf("%s must be a string or a list of strings", key)
	}
	return out, nil
}

func objectParam(config map[string]any, key string) (map[string]any, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", key)
	}
	return obj, nil
}
