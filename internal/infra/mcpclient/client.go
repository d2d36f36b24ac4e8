// Package mcpclient discovers tools on an MCP server and exposes them as tool
// callbacks for the chat client.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/splunkchat/internal/domain/tool"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/config"
	"github.com/matiasleandrokruk/splunkchat/internal/version"
)

var (
	ErrUnsupportedTransport = errors.New("mcp transport not supported")
	ErrToolFailed           = errors.New("mcp tool reported failure")
)

// Session is a connected MCP client plus the tool callbacks discovered on it.
// The callback list is fixed at connect time.
type Session struct {
	cs        *mcp.ClientSession
	callbacks []tool.Callback
	logger    *slog.Logger
}

// Connect opens the transport named by cfg and lists the server's tools.
// TransportNone yields a session with no tools and no connection.
func Connect(ctx context.Context, cfg config.MCPConfig, logger *slog.Logger) (*Session, error) {
	var t mcp.Transport
	switch cfg.Transport {
	case config.TransportNone:
		return &Session{logger: orDiscard(logger)}, nil
	case config.TransportStreamable:
		t = &mcp.StreamableClientTransport{Endpoint: cfg.Endpoint}
	case config.TransportSSE:
		t = &mcp.SSEClientTransport{Endpoint: cfg.Endpoint}
	case config.TransportCommand:
		t = &mcp.CommandTransport{Command: exec.Command(cfg.Command, cfg.Args...)} //nolint:gosec // operator-configured
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTransport, cfg.Transport)
	}
	return ConnectTransport(ctx, t, logger)
}

// ConnectTransport runs the MCP handshake over t and pages through ListTools.
func ConnectTransport(ctx context.Context, t mcp.Transport, logger *slog.Logger) (*Session, error) {
	logger = orDiscard(logger)

	client := mcp.NewClient(&mcp.Implementation{Name: version.Name, Version: version.Version}, nil)
	cs, err := client.Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp connect: %w", err)
	}

	tools, err := listTools(ctx, cs)
	if err != nil {
		_ = cs.Close()
		return nil, err
	}

	s := &Session{cs: cs, logger: logger}
	for _, mt := range tools {
		cb, err := s.newCallback(mt)
		if err != nil {
			logger.Warn("mcp tool skipped", "tool", mt.Name, "error", err)
			continue
		}
		s.callbacks = append(s.callbacks, cb)
	}
	logger.Debug("mcp tools listed", "count", len(s.callbacks))
	return s, nil
}

func listTools(ctx context.Context, cs *mcp.ClientSession) ([]*mcp.Tool, error) {
	var (
		out    []*mcp.Tool
		cursor string
	)
	for {
		res, err := cs.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("mcp list tools: %w", err)
		}
		out = append(out, res.Tools...)
		if res.NextCursor == "" {
			return out, nil
		}
		cursor = res.NextCursor
	}
}

// ToolCallbacks implements tool.Provider.
func (s *Session) ToolCallbacks() []tool.Callback {
	out := make([]tool.Callback, len(s.callbacks))
	copy(out, s.callbacks)
	return out
}

// Close ends the MCP session. Safe on a TransportNone session.
func (s *Session) Close() error {
	if s.cs == nil {
		return nil
	}
	return s.cs.Close()
}

func (s *Session) newCallback(mt *mcp.Tool) (*callback, error) {
	if mt == nil || strings.TrimSpace(mt.Name) == "" {
		return nil, tool.ErrInvalidCallback
	}
	var schema json.RawMessage
	if mt.InputSchema != nil {
		raw, err := json.Marshal(mt.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal input schema: %w", err)
		}
		schema = raw
	}
	return &callback{
		session: s,
		def: tool.Definition{
			Name:        mt.Name,
			Description: mt.Description,
			InputSchema: schema,
		},
	}, nil
}

type callback struct {
	session *Session
	def     tool.Definition
}

func (c *callback) Definition() tool.Definition { return c.def }

// Call invokes the tool and flattens its content to text. A result flagged
// IsError comes back as ErrToolFailed carrying that text.
func (c *callback) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var arguments map[string]any
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return "", fmt.Errorf("mcp call %s: decode arguments: %w", c.def.Name, err)
		}
	}
	if arguments == nil {
		arguments = map[string]any{}
	}

	res, err := c.session.cs.CallTool(ctx, &mcp.CallToolParams{Name: c.def.Name, Arguments: arguments})
	if err != nil {
		return "", fmt.Errorf("mcp call %s: %w", c.def.Name, err)
	}

	text, err := flatten(res)
	if err != nil {
		return "", fmt.Errorf("mcp call %s: %w", c.def.Name, err)
	}
	if res.IsError {
		return "", fmt.Errorf("%w: %s", ErrToolFailed, text)
	}
	return text, nil
}

// flatten joins text blocks with newlines; other content is rendered as JSON.
// With no content blocks the structured content, if any, is used.
func flatten(res *mcp.CallToolResult) (string, error) {
	if len(res.Content) == 0 && res.StructuredContent != nil {
		raw, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return "", fmt.Errorf("marshal structured content: %w", err)
		}
		return string(raw), nil
	}

	parts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
			continue
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("marshal content: %w", err)
		}
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, "\n"), nil
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
