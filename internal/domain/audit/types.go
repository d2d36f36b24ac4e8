package audit

import (
	"encoding/json"
	"time"
)

// Outcome represents the result of an audited action
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// OutcomeOf maps an error to its outcome.
func OutcomeOf(err error) Outcome {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// Exchange is one answered (or failed) GET /chat request.
// Immutable once stored.
type Exchange struct {
	ID        string        `json:"id"`
	RequestID string        `json:"request_id,omitempty"`
	Mode      string        `json:"mode"`
	Message   string        `json:"message"`
	Response  string        `json:"response,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	Error     string        `json:"error,omitempty"`
	ToolCalls int           `json:"tool_calls"`
	Tokens    int           `json:"tokens"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// ToolInvocation is one tool call the model made while answering an exchange.
type ToolInvocation struct {
	ID         string          `json:"id"`
	ExchangeID string          `json:"exchange_id,omitempty"`
	Tool       string          `json:"tool"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Result     string          `json:"result,omitempty"`
	Outcome    Outcome         `json:"outcome"`
	Error      string          `json:"error,omitempty"`
	Duration   time.Duration   `json:"duration"`
	CreatedAt  time.Time       `json:"created_at"`
}
