package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/matiasleandrokruk/splunkchat/internal/infra/eventbus"
)

// Store is the write side of Service.
type Store interface {
	LogExchange(ctx context.Context, ex *Exchange) error
	LogToolInvocation(ctx context.Context, inv *ToolInvocation) error
}

// Recorder persists chat.completed and tool.invoked events off the request path.
type Recorder struct {
	store     Store
	exchanges <-chan eventbus.Event
	tools     <-chan eventbus.Event
	logger    *slog.Logger
}

// NewRecorder subscribes to the bus immediately so no event published after it
// returns is missed.
func NewRecorder(bus eventbus.EventBus, store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{
		store:     store,
		exchanges: bus.Subscribe(eventbus.TopicChatCompleted),
		tools:     bus.Subscribe(eventbus.TopicToolInvoked),
		logger:    logger,
	}
}

// Run consumes events until ctx is done, then persists whatever is still
// buffered before returning. Write failures are logged, not retried.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.drain(context.WithoutCancel(ctx))
			return
		case evt := <-r.exchanges:
			r.record(ctx, evt)
		case evt := <-r.tools:
			r.record(ctx, evt)
		}
	}
}

// drain records buffered events without blocking once both channels are empty.
func (r *Recorder) drain(ctx context.Context) {
	n := 0
	for {
		select {
		case evt := <-r.exchanges:
			r.record(ctx, evt)
		case evt := <-r.tools:
			r.record(ctx, evt)
		default:
			if n > 0 {
				r.logger.Debug("audit drained", "events", n)
			}
			return
		}
		n++
	}
}

func (r *Recorder) record(ctx context.Context, evt eventbus.Event) {
	var err error
	switch p := evt.Payload.(type) {
	case *Exchange:
		err = r.store.LogExchange(ctx, p)
	case Exchange:
		err = r.store.LogExchange(ctx, &p)
	case *ToolInvocation:
		err = r.store.LogToolInvocation(ctx, p)
	case ToolInvocation:
		err = r.store.LogToolInvocation(ctx, &p)
	default:
		r.logger.Warn("audit event ignored", "topic", evt.Topic, "payload_type", fmt.Sprintf("%T", evt.Payload))
		return
	}
	if err != nil {
		r.logger.Error("audit write failed", "topic", evt.Topic, "error", err)
	}
}
