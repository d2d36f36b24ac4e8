package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func echoCallback(name string, schema string) FuncCallback {
	return FuncCallback{
		Def: Definition{Name: name, Description: "echo " + name, InputSchema: json.RawMessage(schema)},
		Fn: func(_ context.Context, args json.RawMessage) (string, error) {
			return name + ":" + string(args), nil
		},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	if err := r.Register(echoCallback("splunk_list_indexes", "")); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if _, err := r.Get("splunk_list_indexes"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if n := len(r.Definitions()); n != 1 {
		t.Fatalf("expected 1 definition, got %d", n)
	}
}

func TestRegistry_Register_Duplicate_ReturnsError(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_ = r.Register(echoCallback("run_splunk_query", ""))

	err := r.Register(echoCallback("run_splunk_query", ""))
	if !errors.Is(err, ErrCallbackAlreadyRegistered) {
		t.Fatalf("expected ErrCallbackAlreadyRegistered, got %v", err)
	}
	if n := len(r.Definitions()); n != 1 {
		t.Fatalf("duplicate must not be added, got %d definitions", n)
	}
}

func TestRegistry_Register_Invalid_ReturnsError(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrInvalidCallback) {
		t.Fatalf("expected ErrInvalidCallback for nil, got %v", err)
	}
	if err := r.Register(echoCallback("  ", "")); !errors.Is(err, ErrInvalidCallback) {
		t.Fatalf("expected ErrInvalidCallback for blank name, got %v", err)
	}
}

func TestRegistry_Get_Unknown_ReturnsNotRegistered(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().Get("nope")
	if !errors.Is(err, ErrCallbackNotRegistered) {
		t.Fatalf("expected ErrCallbackNotRegistered, got %v", err)
	}
}

func TestRegistry_Definitions_KeepsRegistrationOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, n := range []string{"splunk_send_event", "splunk_list_indexes", "run_splunk_query"} {
		if err := r.Register(echoCallback(n, "")); err != nil {
			t.Fatalf("Register(%s): %v", n, err)
		}
	}

	defs := r.Definitions()
	if len(defs) != 3 || defs[0].Name != "splunk_send_event" || defs[2].Name != "run_splunk_query" {
		t.Fatalf("unexpected order: %#v", defs)
	}
}

func TestRegistry_Invoke_ValidatesThenCalls(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	schema := `{"type":"object","required":["query"],"properties":{"query":{"type":"string"}},"additionalProperties":false}`
	_ = r.Register(echoCallback("run_splunk_query", schema))

	out, err := r.Invoke(context.Background(), "run_splunk_query", json.RawMessage(`{"query":"search index=main"}`))
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if out != `run_splunk_query:{"query":"search index=main"}` {
		t.Fatalf("unexpected output %q", out)
	}

	_, err = r.Invoke(context.Background(), "run_splunk_query", json.RawMessage(`{}`))
	if !errors.Is(err, ErrToolValidationFailed) {
		t.Fatalf("expected ErrToolValidationFailed for missing query, got %v", err)
	}

	_, err = r.Invoke(context.Background(), "missing_tool", nil)
	if !errors.Is(err, ErrCallbackNotRegistered) {
		t.Fatalf("expected ErrCallbackNotRegistered, got %v", err)
	}
}

func TestValidateArgs_InvalidJSON_ReturnsError(t *testing.T) {
	t.Parallel()

	err := ValidateArgs(json.RawMessage(`{"type":"object"}`), json.RawMessage(`{"owner_id":"u1"`))
	if !errors.Is(err, ErrToolValidationFailed) {
		t.Fatalf("expected ErrToolValidationFailed, got: %v", err)
	}
}

func TestValidateArgs_NullArgsWithEmptySchema_Passes(t *testing.T) {
	t.Parallel()

	if err := ValidateArgs(nil, json.RawMessage(`null`)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestStaticProvider_ReturnsCopy(t *testing.T) {
	t.Parallel()

	p := StaticProvider{echoCallback("a", ""), echoCallback("b", "")}
	got := p.ToolCallbacks()
	got[0] = nil

	if p[0] == nil {
		t.Fatal("ToolCallbacks must not expose the backing slice")
	}
}

func TestDefinition_String_IncludesNameAndSchema(t *testing.T) {
	t.Parallel()

	s := Definition{Name: "splunk_list_indexes", Description: "List indexes"}.String()
	if !strings.Contains(s, "name=splunk_list_indexes") || !strings.Contains(s, "inputSchema={}") {
		t.Fatalf("unexpected definition string %q", s)
	}
}

func TestValidateAgainstMinimalSchema(t *testing.T) {
	t.Parallel()

	t.Run("missing required field", func(t *testing.T) {
		t.Parallel()
		input := map[string]any{"name": "alice"}
		schema := map[string]any{
			"required": []any{"name", "email"},
		}

		err := validateAgainstMinimalSchema(input, schema)
		if !errors.Is(err, ErrToolValidationFailed) {
			t.Fatalf("expected ErrToolValidationFailed, got %v", err)
		}
	})

	t.Run("unknown field rejected when additional properties false", func(t *testing.T) {
		t.Parallel()
		input := map[string]any{"name": "alice", "unexpected": true}
		schema := map[string]any{
			"additionalProperties": false,
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
		}

		err := validateAgainstMinimalSchema(input, schema)
		if !errors.Is(err, ErrToolValidationFailed) {
			t.Fatalf("expected ErrToolValidationFailed, got %v", err)
		}
	})

	t.Run("unknown field allowed when additional properties true", func(t *testing.T) {
		t.Parallel()
		input := map[string]any{"name": "alice", "unexpected": true}
		schema := map[string]any{
			"additionalProperties": true,
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
		}

		if err := validateAgainstMinimalSchema(input, schema); err != nil {
			t.Fatalf("validateAgainstMinimalSchema returned error: %v", err)
		}
	})

	t.Run("default additional properties true", func(t *testing.T) {
		t.Parallel()
		input := map[string]any{"unknown": true}
		schema := map[string]any{}

		if err := validateAgainstMinimalSchema(input, schema); err != nil {
			t.Fatalf("validateAgainstMinimalSchema returned error: %v", err)
		}
	})
}

func TestExtractStringSlice(t *testing.T) {
	t.Parallel()

	out := extractStringSlice([]any{"name", "", "  ", 123, "email"})
	if len(out) != 2 || out[0] != "name" || out[1] != "email" {
		t.Fatalf("unexpected slice: %#v", out)
	}

	out = extractStringSlice("not-array")
	if out != nil {
		t.Fatalf("expected nil for non-array input, got %#v", out)
	}
}
