package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/splunkchat/internal/domain/chat"
	"github.com/matiasleandrokruk/splunkchat/internal/domain/tool"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/config"
)

type queryInput struct {
	Query string `json:"query" jsonschema:"SPL query to run"`
}

type eventInput struct {
	Index string `json:"index"`
	Event string `json:"event"`
}

// newSplunkServer serves the three Splunk tools the system prompt advertises.
func newSplunkServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "splunk-test", Version: "v0.0.1"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "splunk_list_indexes",
		Description: "List Splunk indexes",
	}, func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "main"}, &mcp.TextContent{Text: "orders"}},
		}, nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_splunk_query",
		Description: "Run an SPL query",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in queryInput) (*mcp.CallToolResult, any, error) {
		if in.Query == "boom" {
			return nil, nil, errors.New("search head unavailable")
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "results for " + in.Query}},
		}, nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "splunk_send_event",
		Description: "Send an event to HEC",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in eventInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("sent %q to %s", in.Event, in.Index)}},
		}, nil, nil
	})

	return server
}

func connectInMemory(t *testing.T, server *mcp.Server) *Session {
	t.Helper()
	ctx := context.Background()

	clientT, serverT := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	s, err := ConnectTransport(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func callbackByName(t *testing.T, s *Session, name string) tool.Callback {
	t.Helper()
	for _, cb := range s.ToolCallbacks() {
		if cb.Definition().Name == name {
			return cb
		}
	}
	t.Fatalf("tool %q not discovered", name)
	return nil
}

func TestConnectTransport_DiscoversTools(t *testing.T) {
	t.Parallel()

	s := connectInMemory(t, newSplunkServer())

	names := make([]string, 0)
	for _, cb := range s.ToolCallbacks() {
		names = append(names, cb.Definition().Name)
	}
	assert.ElementsMatch(t, []string{"splunk_list_indexes", "run_splunk_query", "splunk_send_event"}, names)

	def := callbackByName(t, s, "run_splunk_query").Definition()
	assert.Equal(t, "Run an SPL query", def.Description)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(def.InputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["properties"], "query")
}

func TestCallback_Call_FlattensTextContent(t *testing.T) {
	t.Parallel()

	s := connectInMemory(t, newSplunkServer())

	out, err := callbackByName(t, s, "splunk_list_indexes").Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "main\norders", out)
}

func TestCallback_Call_PassesArguments(t *testing.T) {
	t.Parallel()

	s := connectInMemory(t, newSplunkServer())

	out, err := callbackByName(t, s, "splunk_send_event").
		Call(context.Background(), json.RawMessage(`{"index":"orders","event":"crashed"}`))
	require.NoError(t, err)
	assert.Equal(t, `sent "crashed" to orders`, out)
}

func TestCallback_Call_ToolErrorReturnsErrToolFailed(t *testing.T) {
	t.Parallel()

	s := connectInMemory(t, newSplunkServer())

	_, err := callbackByName(t, s, "run_splunk_query").
		Call(context.Background(), json.RawMessage(`{"query":"boom"}`))
	require.ErrorIs(t, err, ErrToolFailed)
	assert.Contains(t, err.Error(), "search head unavailable")
}

func TestCallback_Call_BadArguments(t *testing.T) {
	t.Parallel()

	s := connectInMemory(t, newSplunkServer())

	_, err := callbackByName(t, s, "run_splunk_query").Call(context.Background(), json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestSession_FeedsChatBootstrap(t *testing.T) {
	t.Parallel()

	s := connectInMemory(t, newSplunkServer())
	c := chat.Bootstrap(chat.NewBuilder(nil), s, nil)

	assert.Len(t, c.Tools(), 3)
}

func TestConnect_TransportNone_IsEmpty(t *testing.T) {
	t.Parallel()

	s, err := Connect(context.Background(), config.MCPConfig{Transport: config.TransportNone}, nil)
	require.NoError(t, err)
	assert.Empty(t, s.ToolCallbacks())
	assert.NoError(t, s.Close())
}

func TestConnect_UnknownTransport(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), config.MCPConfig{Transport: "carrier-pigeon"}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedTransport)
}

func TestFlatten_StructuredContentWhenNoBlocks(t *testing.T) {
	t.Parallel()

	out, err := flatten(&mcp.CallToolResult{StructuredContent: map[string]any{"count": 3}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, out)
}
