package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Definition is the identity of a tool as advertised to the model.
type Definition struct {
	Name        string
	Description string
	InputSchema json.RawMessage // JSON Schema object; may be empty
}

// String renders the definition for startup logging.
func (d Definition) String() string {
	schema := strings.TrimSpace(string(d.InputSchema))
	if schema == "" {
		schema = "{}"
	}
	return fmt.Sprintf("ToolDefinition[name=%s, description=%s, inputSchema=%s]", d.Name, d.Description, schema)
}

// Callback is an invocable tool the chat client may call on the model's behalf.
// Implementations are owned by a Provider; callers only read Definition and Call.
type Callback interface {
	Definition() Definition
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// Provider supplies the tool callbacks available at startup.
type Provider interface {
	ToolCallbacks() []Callback
}

// StaticProvider is a fixed list of callbacks.
type StaticProvider []Callback

// ToolCallbacks returns a copy of the list.
func (p StaticProvider) ToolCallbacks() []Callback {
	out := make([]Callback, len(p))
	copy(out, p)
	return out
}

// FuncCallback adapts a plain function to Callback.
type FuncCallback struct {
	Def Definition
	Fn  func(ctx context.Context, args json.RawMessage) (string, error)
}

// Definition implements Callback.
func (f FuncCallback) Definition() Definition { return f.Def }

// Call implements Callback.
func (f FuncCallback) Call(ctx context.Context, args json.RawMessage) (string, error) {
	return f.Fn(ctx, args)
}
