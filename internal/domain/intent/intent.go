// Package intent maps a free-text message to a Splunk tool call by keyword
// matching, and dispatches it straight to the tool server.
package intent

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Tool names understood by the dispatcher.
const (
	ToolListIndexes   = "splunk_list_indexes"
	ToolSearch        = "splunk_search"
	ToolSearchResults = "splunk_get_search_results"
	ToolSendEvent     = "splunk_send_event"
)

const (
	defaultIndex    = "main"
	defaultEarliest = "-24h"
)

// ParsedIntent is the outcome of Interpret. An empty Tool means no tool matched.
// It is immutable: params are copied in and out.
type ParsedIntent struct {
	tool   string
	params map[string]any
}

func NewParsedIntent(tool string, params map[string]any) ParsedIntent {
	return ParsedIntent{tool: tool, params: maps.Clone(params)}
}

func (p ParsedIntent) Tool() string { return p.tool }

// HasTool reports whether a tool was matched.
func (p ParsedIntent) HasTool() bool { return p.tool != "" }

// Params returns a copy of the extracted parameters, never nil.
func (p ParsedIntent) Params() map[string]any {
	out := make(map[string]any, len(p.params))
	maps.Copy(out, p.params)
	return out
}

func (p ParsedIntent) param(key string) string {
	v, ok := p.params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// String renders the intent for logs with keys in sorted order.
func (p ParsedIntent) String() string {
	keys := slices.Sorted(maps.Keys(p.params))
	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, p.params[k])
	}
	b.WriteString("}")
	return b.String()
}

// Interpret classifies msg over its lower-cased ASCII-whitespace tokens. The first
// matching rule wins:
//
//  1. "list" or "indexes"              → splunk_list_indexes
//  2. "search"                          → splunk_search {query}
//  3. "results" or a "sid=" token       → splunk_get_search_results {sid}
//  4. both "send" and "event"           → splunk_send_event {index, event}
//
// Anything else yields no tool. Values are always the single next token.
func Interpret(msg string) ParsedIntent {
	lower := strings.ToLower(msg)
	words := tokens(lower)

	switch {
	case slices.Contains(words, "list") || slices.Contains(words, "indexes"):
		return NewParsedIntent(ToolListIndexes, nil)

	case slices.Contains(words, "search"):
		index := defaultIndex
		if v, ok := after(words, "in"); ok {
			index = v
		}

		// Known defect: every window resolves to -24h, since "last 24 hours" is
		// the only phrase recognised and it equals the default.
		// TODO: map "last N minutes|hours|days" onto Splunk relative times.
		earliest := defaultEarliest
		if strings.Contains(lower, "last 24 hours") {
			earliest = "-24h"
		}

		query := fmt.Sprintf("search index=%s earliest=%s", index, earliest)
		return NewParsedIntent(ToolSearch, map[string]any{"query": query})

	case slices.Contains(words, "results") || slices.ContainsFunc(words, isSidToken):
		return NewParsedIntent(ToolSearchResults, map[string]any{"sid": extractSid(words)})

	case slices.Contains(words, "send") && slices.Contains(words, "event"):
		index, _ := after(words, "index")
		event, _ := after(words, "event")
		return NewParsedIntent(ToolSendEvent, map[string]any{"index": index, "event": event})
	}

	return NewParsedIntent("", nil)
}

// tokens splits on ASCII whitespace only; NBSP and other Unicode spaces stay
// inside a token.
func tokens(s string) []string {
	return strings.FieldsFunc(s, isASCIISpace)
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isSidToken(w string) bool { return strings.HasPrefix(w, "sid=") }

// extractSid takes the token after a literal "sid", or the suffix of a "sid="
// token, whichever comes first.
func extractSid(words []string) string {
	for i, w := range words {
		if w == "sid" && i+1 < len(words) {
			return words[i+1]
		}
		if isSidToken(w) {
			return strings.TrimPrefix(w, "sid=")
		}
	}
	return ""
}

// after returns the token following the first occurrence of key that has one.
func after(words []string, key string) (string, bool) {
	for i, w := range words {
		if w == key && i+1 < len(words) {
			return words[i+1], true
		}
	}
	return "", false
}
