package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCallbackAlreadyRegistered = errors.New("tool callback already registered")
	ErrCallbackNotRegistered     = errors.New("tool callback not registered")
	ErrInvalidCallback           = errors.New("tool callback is invalid")
	ErrToolValidationFailed      = errors.New("tool params validation failed")
)

// Registry holds the default tool callbacks of a chat client, in registration order.
// It is populated once at startup and only read afterwards.
type Registry struct {
	order     []string
	callbacks map[string]Callback
}

func NewRegistry() *Registry {
	return &Registry{callbacks: make(map[string]Callback)}
}

func (r *Registry) Register(cb Callback) error {
	if cb == nil {
		return ErrInvalidCallback
	}
	name := strings.TrimSpace(cb.Definition().Name)
	if name == "" {
		return ErrInvalidCallback
	}
	if _, exists := r.callbacks[name]; exists {
		return fmt.Errorf("%w: %s", ErrCallbackAlreadyRegistered, name)
	}
	r.callbacks[name] = cb
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Callback, error) {
	cb, ok := r.callbacks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCallbackNotRegistered, name)
	}
	return cb, nil
}

// Definitions lists registered tool definitions in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.callbacks[name].Definition())
	}
	return out
}

// Invoke validates args against the tool's input schema and calls it.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (string, error) {
	cb, err := r.Get(name)
	if err != nil {
		return "", err
	}
	if err := ValidateArgs(cb.Definition().InputSchema, args); err != nil {
		return "", err
	}
	return cb.Call(ctx, args)
}

// ValidateArgs applies the minimal schema checks the model most often gets wrong:
// args must be an object, required keys present, no unknown keys when
// additionalProperties is false. An empty schema accepts any object.
func ValidateArgs(schemaRaw, args json.RawMessage) error {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	var input map[string]any
	if err := json.Unmarshal(args, &input); err != nil {
		return fmt.Errorf("%w: params must be a json object", ErrToolValidationFailed)
	}

	if len(schemaRaw) == 0 {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal(schemaRaw, &schema); err != nil {
		return fmt.Errorf("%w: invalid tool schema", ErrToolValidationFailed)
	}

	return validateAgainstMinimalSchema(input, schema)
}

func validateAgainstMinimalSchema(input, schema map[string]any) error {
	requiredKeys := extractStringSlice(schema["required"])
	for _, key := range requiredKeys {
		if _, ok := input[key]; !ok {
			return fmt.Errorf("%w: missing required field %q", ErrToolValidationFailed, key)
		}
	}

	allowAdditional := true
	if v, ok := schema["additionalProperties"].(bool); ok {
		allowAdditional = v
	}

	allowedProps := map[string]struct{}{}
	if props, ok := schema["properties"].(map[string]any); ok {
		for key := range props {
			allowedProps[key] = struct{}{}
		}
	}

	if !allowAdditional {
		for key := range input {
			if _, ok := allowedProps[key]; !ok {
				return fmt.Errorf("%w: unknown field %q", ErrToolValidationFailed, key)
			}
		}
	}

	return nil
}

func extractStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
