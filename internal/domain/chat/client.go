package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matiasleandrokruk/splunkchat/internal/domain/tool"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/llm"
)

var (
	ErrEmptyPrompt    = errors.New("chat prompt has no user message")
	ErrToolRoundLimit = errors.New("chat exceeded tool round limit")
)

// ToolInvocation records one tool call made while answering a prompt.
type ToolInvocation struct {
	ExchangeID string
	Tool       string
	Arguments  json.RawMessage
	Result     string
	Err        error
	Duration   time.Duration
}

// Client is safe for concurrent use; nothing in it changes after Build.
type Client struct {
	provider    llm.ChatProvider
	tools       *tool.Registry
	toolDefs    []llm.ToolDefinition
	system      string
	model       string
	temperature float32
	maxTokens   int
	maxRounds   int
	logger      *slog.Logger
	hooks       []ToolInvocationHook
}

// Tools lists the default tool definitions in registration order.
func (c *Client) Tools() []tool.Definition {
	return c.tools.Definitions()
}

// Prompt starts a new request carrying the client's defaults.
func (c *Client) Prompt() *Prompt {
	return &Prompt{client: c, system: c.system}
}

// Prompt is a single request under construction. It is not safe for concurrent use.
type Prompt struct {
	client *Client
	system string
	user   string
}

// System replaces the default system prompt for this request.
func (p *Prompt) System(text string) *Prompt {
	p.system = text
	return p
}

func (p *Prompt) User(text string) *Prompt {
	p.user = text
	return p
}

// Response is the final answer of a prompt.
type Response struct {
	content   string
	rounds    int
	toolCalls int
	tokens    int
}

// Content is the model's final text, untransformed.
func (r *Response) Content() string { return r.content }

// Rounds is the number of model turns taken, including the final one.
func (r *Response) Rounds() int { return r.rounds }

func (r *Response) ToolCalls() int { return r.toolCalls }

// Tokens sums token usage over all model turns.
func (r *Response) Tokens() int { return r.tokens }

// Call runs the prompt, invoking requested tools and feeding their results back
// until the model answers without asking for tools.
func (p *Prompt) Call(ctx context.Context) (*Response, error) {
	if p.user == "" {
		return nil, ErrEmptyPrompt
	}
	c := p.client

	msgs := make([]llm.Message, 0, 4)
	if strings.TrimSpace(p.system) != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: p.system})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: p.user})

	out := &Response{}
	for {
		resp, err := c.provider.ChatCompletion(ctx, llm.ChatRequest{
			Model:       c.model,
			Messages:    msgs,
			Tools:       c.toolDefs,
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		out.rounds++
		out.tokens += resp.Tokens

		if len(resp.ToolCalls) == 0 {
			out.content = resp.Content
			return out, nil
		}
		if out.rounds > c.maxRounds {
			return nil, fmt.Errorf("%w (%d)", ErrToolRoundLimit, c.maxRounds)
		}

		msgs = append(msgs, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			msgs = append(msgs, llm.Message{
				Role:       llm.RoleTool,
				Content:    c.invoke(ctx, call),
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
			out.toolCalls++
		}
	}
}

// invoke never fails: errors become the tool result so the model can react to them.
func (c *Client) invoke(ctx context.Context, call llm.ToolCall) string {
	start := time.Now()
	result, err := c.tools.Invoke(ctx, call.Name, call.Arguments)
	elapsed := time.Since(start)

	if err != nil {
		c.logger.Warn("tool invocation failed", "tool", call.Name, "error", err)
		result = "error: " + err.Error()
	} else {
		c.logger.Debug("tool invoked", "tool", call.Name, "duration", elapsed)
	}

	inv := ToolInvocation{
		ExchangeID: ExchangeID(ctx),
		Tool:       call.Name,
		Arguments:  call.Arguments,
		Result:     result,
		Err:        err,
		Duration:   elapsed,
	}
	for _, h := range c.hooks {
		h(ctx, inv)
	}
	return result
}
