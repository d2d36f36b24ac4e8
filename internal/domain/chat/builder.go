// Package chat is the tool-calling chat client: a builder fixes default tools and
// options once at startup, and each prompt runs the model until it stops asking
// for tools.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/matiasleandrokruk/splunkchat/internal/domain/tool"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/llm"
)

// DefaultMaxToolRounds bounds model turns that request tools within one prompt.
const DefaultMaxToolRounds = 8

// ToolInvocationHook observes every tool call made on the model's behalf.
type ToolInvocationHook func(ctx context.Context, inv ToolInvocation)

// Builder collects the defaults applied to every prompt of the built Client.
type Builder struct {
	provider    llm.ChatProvider
	callbacks   []tool.Callback
	system      string
	model       string
	temperature float32
	maxTokens   int
	maxRounds   int
	logger      *slog.Logger
	hooks       []ToolInvocationHook
}

func NewBuilder(provider llm.ChatProvider) *Builder {
	return &Builder{
		provider:  provider,
		maxRounds: DefaultMaxToolRounds,
		logger:    slog.New(slog.DiscardHandler),
	}
}

// DefaultToolCallbacks attaches callbacks to every prompt. Repeated calls append.
func (b *Builder) DefaultToolCallbacks(cbs ...tool.Callback) *Builder {
	b.callbacks = append(b.callbacks, cbs...)
	return b
}

// DefaultSystem sets the system prompt used when a prompt does not set its own.
func (b *Builder) DefaultSystem(text string) *Builder {
	b.system = text
	return b
}

// Model overrides the provider's default model.
func (b *Builder) Model(model string) *Builder {
	b.model = model
	return b
}

func (b *Builder) Temperature(t float32) *Builder {
	b.temperature = t
	return b
}

func (b *Builder) MaxTokens(n int) *Builder {
	b.maxTokens = n
	return b
}

// MaxToolRounds sets how many tool-requesting model turns a prompt may take.
// Values below one are ignored.
func (b *Builder) MaxToolRounds(n int) *Builder {
	if n > 0 {
		b.maxRounds = n
	}
	return b
}

func (b *Builder) Logger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

func (b *Builder) OnToolInvocation(h ToolInvocationHook) *Builder {
	if h != nil {
		b.hooks = append(b.hooks, h)
	}
	return b
}

// Build registers the default callbacks and returns an immutable Client.
// Invalid or duplicate callbacks are logged and skipped; the first registration
// of a name wins.
func (b *Builder) Build() *Client {
	reg := tool.NewRegistry()
	for _, cb := range b.callbacks {
		if err := reg.Register(cb); err != nil {
			attrs := []any{"error", err}
			if cb != nil {
				attrs = append(attrs, "tool", cb.Definition().Name)
			}
			level := slog.LevelWarn
			if errors.Is(err, tool.ErrInvalidCallback) {
				level = slog.LevelError
			}
			b.logger.Log(context.Background(), level, "tool callback skipped", attrs...)
		}
	}

	defs := reg.Definitions()
	toolDefs := make([]llm.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		toolDefs = append(toolDefs, llm.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		})
	}

	hooks := make([]ToolInvocationHook, len(b.hooks))
	copy(hooks, b.hooks)

	return &Client{
		provider:    b.provider,
		tools:       reg,
		toolDefs:    toolDefs,
		system:      b.system,
		model:       b.model,
		temperature: b.temperature,
		maxTokens:   b.maxTokens,
		maxRounds:   b.maxRounds,
		logger:      b.logger,
		hooks:       hooks,
	}
}
