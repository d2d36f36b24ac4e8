package intent

import (
	"context"
	"log/slog"
)

// UnknownToolReply is returned, not an error, when an intent names a tool the
// dispatcher has no route for.
const UnknownToolReply = "Unknown tool."

// ToolServer is the REST surface of the Splunk tool server.
type ToolServer interface {
	ListIndexes(ctx context.Context) (string, error)
	Search(ctx context.Context, query string) (string, error)
	Results(ctx context.Context, sid string) (string, error)
	SendEvent(ctx context.Context, params map[string]any) (string, error)
}

// Fallback answers messages that matched no tool.
type Fallback interface {
	Answer(ctx context.Context, message string) (string, error)
}

// FallbackFunc adapts a function to Fallback.
type FallbackFunc func(ctx context.Context, message string) (string, error)

func (f FallbackFunc) Answer(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

// Dispatcher routes messages deterministically: Interpret picks the tool and the
// matching tool server endpoint is called directly, bypassing the model.
type Dispatcher struct {
	tools    ToolServer
	fallback Fallback
	logger   *slog.Logger
}

func NewDispatcher(tools ToolServer, fallback Fallback, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{tools: tools, fallback: fallback, logger: logger}
}

// Dispatch interprets message and executes the result.
func (d *Dispatcher) Dispatch(ctx context.Context, message string) (string, error) {
	d.logger.InfoContext(ctx, "received query", "message", message)
	return d.Execute(ctx, Interpret(message), message)
}

// Execute runs a parsed intent. message is what the fallback receives when no
// tool matched.
func (d *Dispatcher) Execute(ctx context.Context, in ParsedIntent, message string) (string, error) {
	if !in.HasTool() {
		d.logger.InfoContext(ctx, "no tool match, forwarding to model")
		return d.fallback.Answer(ctx, message)
	}

	d.logger.InfoContext(ctx, "selected tool", "tool", in.Tool(), "params", in.String())

	switch in.Tool() {
	case ToolListIndexes:
		return d.tools.ListIndexes(ctx)
	case ToolSearch:
		return d.tools.Search(ctx, in.param("query"))
	case ToolSearchResults:
		return d.tools.Results(ctx, in.param("sid"))
	case ToolSendEvent:
		return d.tools.SendEvent(ctx, in.Params())
	default:
		d.logger.WarnContext(ctx, "unhandled tool", "tool", in.Tool())
		return UnknownToolReply, nil
	}
}
