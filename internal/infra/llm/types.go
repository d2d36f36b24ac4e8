// Package llm defines the model-agnostic chat provider abstraction.
// All types here are shared between the provider interface and adapters.
package llm

import "encoding/json"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single turn in a conversation.
type Message struct {
	Role    string // "system" | "user" | "assistant" | "tool"
	Content string
	// ToolCalls is set on assistant turns that request tool invocations.
	ToolCalls []ToolCall
	// ToolCallID and ToolName identify which call a "tool" turn answers.
	ToolCallID string
	ToolName   string
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage // JSON object
}

// ToolDefinition advertises a callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema object
}

// ChatRequest is the input for a non-streaming chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the output from a non-streaming chat completion.
type ChatResponse struct {
	Content    string     // The assistant message text.
	ToolCalls  []ToolCall // Non-empty when the model wants tools run before answering.
	StopReason string     // "stop" | "length" | "tool_calls" | ...
	Tokens     int        // Total tokens consumed (prompt + completion).
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "llama3.2:3b", "gpt-4o-mini"
	Provider  string // e.g. "ollama", "openai"
	Version   string
	MaxTokens int // Maximum context window size.
}

// emptySchema is sent when a tool has no declared parameters.
var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

func schemaOrEmpty(s json.RawMessage) json.RawMessage {
	if len(s) == 0 || string(s) == "null" {
		return emptySchema
	}
	return s
}

func argsOrEmpty(a json.RawMessage) json.RawMessage {
	if len(a) == 0 || string(a) == "null" {
		return json.RawMessage(`{}`)
	}
	return a
}
