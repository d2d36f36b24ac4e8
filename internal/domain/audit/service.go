package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matiasleandrokruk/splunkchat/pkg/uuid"
)

// maxStoredText caps message, response and result columns.
const maxStoredText = 64 << 10

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Service is the append-only audit store. There are no updates or deletes.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// LogExchange stores ex, filling ID and CreatedAt when unset.
func (s *Service) LogExchange(ctx context.Context, ex *Exchange) error {
	if ex.ID == "" {
		ex.ID = generateID()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	if ex.Outcome == "" {
		ex.Outcome = OutcomeSuccess
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_exchange
			(id, request_id, mode, message, response, outcome, error, tool_calls, tokens, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.RequestID, ex.Mode, truncate(ex.Message), truncate(ex.Response),
		string(ex.Outcome), ex.Error, ex.ToolCalls, ex.Tokens, ex.Duration.Milliseconds(),
		formatTime(ex.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("audit log exchange: %w", err)
	}
	return nil
}

// LogToolInvocation stores inv, filling ID and CreatedAt when unset.
func (s *Service) LogToolInvocation(ctx context.Context, inv *ToolInvocation) error {
	if inv.ID == "" {
		inv.ID = generateID()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	if inv.Outcome == "" {
		inv.Outcome = OutcomeSuccess
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_invocation
			(id, exchange_id, tool, arguments, result, outcome, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ExchangeID, inv.Tool, string(normalizeJSON(inv.Arguments, []byte("{}"))),
		truncate(inv.Result), string(inv.Outcome), inv.Error, inv.Duration.Milliseconds(),
		formatTime(inv.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("audit log tool invocation: %w", err)
	}
	return nil
}

// ListExchanges returns exchanges newest first.
func (s *Service) ListExchanges(ctx context.Context, limit, offset int) ([]*Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, mode, message, response, outcome, error, tool_calls, tokens, duration_ms, created_at
		FROM chat_exchange
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit list exchanges: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*Exchange
	for rows.Next() {
		var (
			ex       Exchange
			outcome  string
			duration int64
			created  string
		)
		if err := rows.Scan(&ex.ID, &ex.RequestID, &ex.Mode, &ex.Message, &ex.Response, &outcome,
			&ex.Error, &ex.ToolCalls, &ex.Tokens, &duration, &created); err != nil {
			return nil, fmt.Errorf("audit list exchanges: scan: %w", err)
		}
		ex.Outcome = Outcome(outcome)
		ex.Duration = time.Duration(duration) * time.Millisecond
		ex.CreatedAt = parseTime(created)
		out = append(out, &ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit list exchanges: %w", err)
	}
	return out, nil
}

// ListToolInvocations returns the invocations of one exchange in call order.
func (s *Service) ListToolInvocations(ctx context.Context, exchangeID string) ([]*ToolInvocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exchange_id, tool, arguments, result, outcome, error, duration_ms, created_at
		FROM tool_invocation
		WHERE exchange_id = ?
		ORDER BY created_at ASC, id ASC`, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("audit list tool invocations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []*ToolInvocation
	for rows.Next() {
		var (
			inv      ToolInvocation
			args     string
			outcome  string
			duration int64
			created  string
		)
		if err := rows.Scan(&inv.ID, &inv.ExchangeID, &inv.Tool, &args, &inv.Result, &outcome,
			&inv.Error, &duration, &created); err != nil {
			return nil, fmt.Errorf("audit list tool invocations: scan: %w", err)
		}
		inv.Arguments = json.RawMessage(args)
		inv.Outcome = Outcome(outcome)
		inv.Duration = time.Duration(duration) * time.Millisecond
		inv.CreatedAt = parseTime(created)
		out = append(out, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit list tool invocations: %w", err)
	}
	return out, nil
}

func generateID() string {
	return uuid.NewString()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func truncate(s string) string {
	if len(s) <= maxStoredText {
		return s
	}
	return s[:maxStoredText]
}

func normalizeJSON(raw json.RawMessage, fallback []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(fallback)
	}
	return raw
}
