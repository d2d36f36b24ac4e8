package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/splunkchat/internal/domain/audit"
	"github.com/matiasleandrokruk/splunkchat/internal/domain/chat"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/eventbus"
	"github.com/matiasleandrokruk/splunkchat/pkg/uuid"
)

const (
	messageParam       = "message"
	missingMessageBody = "Required request parameter 'message' is not present"
	chatFailedBody     = "chat failed"
)

// Answerer produces the reply to one user message.
type Answerer interface {
	Answer(ctx context.Context, message string) (chat.Reply, error)
}

// TextAnswerer adapts a plain text responder, such as the intent dispatcher.
type TextAnswerer func(ctx context.Context, message string) (string, error)

func (f TextAnswerer) Answer(ctx context.Context, message string) (chat.Reply, error) {
	out, err := f(ctx, message)
	if err != nil {
		return chat.Reply{}, err
	}
	return chat.Reply{Content: out}, nil
}

// ChatObserver receives per-request measurements.
type ChatObserver interface {
	ObserveChat(mode string, d time.Duration, err error)
}

// Publisher is the publish side of the event bus.
type Publisher interface {
	Publish(topic string, payload any)
}

type ChatHandlerConfig struct {
	Mode     string
	Answerer Answerer
	Timeout  time.Duration // bounds one answer; zero means none
	Events   Publisher    // optional
	Observer ChatObserver // optional
	Logger   *slog.Logger // optional
}

type ChatHandler struct {
	mode     string
	answerer Answerer
	timeout  time.Duration
	events   Publisher
	observer ChatObserver
	logger   *slog.Logger
}

func NewChatHandler(cfg ChatHandlerConfig) *ChatHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ChatHandler{
		mode:     cfg.Mode,
		answerer: cfg.Answerer,
		timeout:  cfg.Timeout,
		events:   cfg.Events,
		observer: cfg.Observer,
		logger:   logger,
	}
}

// Chat serves GET /chat?message=. The reply is written as the text/plain body,
// untransformed. Any failure below this layer becomes a 500 with a generic body.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	message := r.URL.Query().Get(messageParam)
	if message == "" {
		writeError(w, http.StatusBadRequest, missingMessageBody)
		return
	}

	exchangeID := uuid.NewString()
	ctx := chat.WithExchangeID(r.Context(), exchangeID)

	answerCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		answerCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := h.answerer.Answer(answerCtx, message)
	elapsed := time.Since(start)

	if h.observer != nil {
		h.observer.ObserveChat(h.mode, elapsed, err)
	}
	h.publish(ctx, exchangeID, message, reply, elapsed, err)

	if err != nil {
		h.logger.ErrorContext(ctx, "chat failed",
			"exchange_id", exchangeID,
			"request_id", middleware.GetReqID(ctx),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, chatFailedBody)
		return
	}

	h.logger.InfoContext(ctx, "chat answered",
		"exchange_id", exchangeID,
		"mode", h.mode,
		"tool_calls", reply.ToolCalls,
		"duration", elapsed,
	)
	writeText(w, http.StatusOK, reply.Content)
}

func (h *ChatHandler) publish(ctx context.Context, id, message string, reply chat.Reply, elapsed time.Duration, err error) {
	if h.events == nil {
		return
	}
	ex := &audit.Exchange{
		ID:        id,
		RequestID: middleware.GetReqID(ctx),
		Mode:      h.mode,
		Message:   message,
		Response:  reply.Content,
		Outcome:   audit.OutcomeOf(err),
		ToolCalls: reply.ToolCalls,
		Tokens:    reply.Tokens,
		Duration:  elapsed,
		CreatedAt: time.Now(),
	}
	if err != nil {
		ex.Error = err.Error()
	}
	h.events.Publish(eventbus.TopicChatCompleted, ex)
}
