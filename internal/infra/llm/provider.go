// Package llm: ChatProvider interface.
// Adapters (Ollama, OpenAI) implement this interface so the chat client
// is never coupled to a specific LLM vendor.
package llm

import "context"

// ChatProvider is the model-agnostic interface for chat completions with tool calling.
type ChatProvider interface {
	// ChatCompletion performs a non-streaming chat completion. When req.Tools is
	// non-empty the response may carry ToolCalls instead of final content.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}
