// Package eventbus is an in-memory publish/subscribe bus that decouples the chat
// path from the audit writer.
//
//   - Buffered channel per subscriber.
//   - Publish never blocks: an event is dropped for a subscriber whose buffer is full.
//   - Subscribe returns a read-only channel; the caller owns the consumption loop.
//   - No persistence.
package eventbus

import "sync"

// Topics published by the chat path.
const (
	// TopicToolInvoked carries an audit.ToolInvocation.
	TopicToolInvoked = "tool.invoked"
	// TopicChatCompleted carries an audit.Exchange.
	TopicChatCompleted = "chat.completed"
)

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

// EventBus is the interface for publishing and subscribing to topics.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(topic string) <-chan Event
}

const defaultBufferSize = 256

// DropFunc is told about every event dropped on a full subscriber buffer.
type DropFunc func(topic string)

// Bus is the in-memory implementation of EventBus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	bufferSize  int
	onDrop      DropFunc
}

// Option configures a Bus.
type Option func(*Bus)

// WithBufferSize sets the per-subscriber buffer. Values below one are ignored.
func WithBufferSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// WithDropHandler registers fn to observe dropped events.
func WithDropHandler(fn DropFunc) Option {
	return func(b *Bus) { b.onDrop = fn }
}

// New returns a new in-memory Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[string][]chan Event),
		bufferSize:  defaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber for topic and returns a read-only channel.
// A subscriber that stops reading loses events once its buffer fills.
func (b *Bus) Subscribe(topic string) <-chan Event {
	ch := make(chan Event, b.bufferSize)
	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends an Event to all subscribers of topic.
// If a subscriber's buffer is full the event is dropped (non-blocking).
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}
	b.mu.RLock()
	subs := b.subscribers[topic]
	b.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
			if b.onDrop != nil {
				b.onDrop(topic)
			}
		}
	}
}
