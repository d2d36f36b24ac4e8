package eventbus

import (
	"sync"
	"testing"
	"time"
)

func TestEventBus_PublishAndSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe(TopicChatCompleted)

	bus.Publish(TopicChatCompleted, "hello")

	select {
	case evt := <-ch:
		if evt.Topic != TopicChatCompleted {
			t.Errorf("expected topic 'chat.completed', got %q", evt.Topic)
		}
		if evt.Payload != "hello" {
			t.Errorf("expected payload 'hello', got %v", evt.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout: expected event to be received within 100ms")
	}
}

func TestEventBus_MultipleSubscribers_AllReceive(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe("multi.topic")
	ch2 := bus.Subscribe("multi.topic")

	bus.Publish("multi.topic", 42)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Payload != 42 {
				t.Errorf("subscriber %d: expected payload 42, got %v", i, evt.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d: timeout waiting for event", i)
		}
	}
}

func TestEventBus_DifferentTopics_NoInterference(t *testing.T) {
	bus := New()
	chA := bus.Subscribe("topic.a")
	chB := bus.Subscribe("topic.b")

	bus.Publish("topic.a", "for-a")

	select {
	case evt := <-chA:
		if evt.Payload != "for-a" {
			t.Errorf("topic.a: unexpected payload %v", evt.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("topic.a: timeout waiting for event")
	}

	// topic.b should have received nothing
	select {
	case evt := <-chB:
		t.Errorf("topic.b: received unexpected event: %v", evt)
	default:
		// correct; no event
	}
}

func TestEventBus_NonBlockingPublish_FullBuffer(t *testing.T) {
	bus := New()
	// Subscribe but never consume; buffer will fill up
	_ = bus.Subscribe("overflow.topic")

	// Publish more events than the buffer size; must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i <= defaultBufferSize+10; i++ {
			bus.Publish("overflow.topic", i)
		}
		close(done)
	}()

	select {
	case <-done:
		// correct; publish never blocked
	case <-time.After(500 * time.Millisecond):
		t.Error("Publish blocked when buffer was full (should be non-blocking)")
	}
}

func TestEventBus_DropHandler_CountsOverflow(t *testing.T) {
	var mu sync.Mutex
	dropped := 0
	bus := New(WithBufferSize(2), WithDropHandler(func(topic string) {
		if topic != TopicToolInvoked {
			t.Errorf("unexpected drop topic %q", topic)
		}
		mu.Lock()
		dropped++
		mu.Unlock()
	}))
	ch := bus.Subscribe(TopicToolInvoked)

	for i := 0; i < 5; i++ {
		bus.Publish(TopicToolInvoked, i)
	}

	mu.Lock()
	defer mu.Unlock()
	if dropped != 3 {
		t.Errorf("expected 3 dropped events, got %d", dropped)
	}
	if len(ch) != 2 {
		t.Errorf("expected 2 buffered events, got %d", len(ch))
	}
}

func TestEventBus_PublishWithoutSubscribers_IsNoop(t *testing.T) {
	bus := New(WithBufferSize(0))
	bus.Publish(TopicToolInvoked, "ignored")

	ch := bus.Subscribe(TopicToolInvoked)
	if cap(ch) != defaultBufferSize {
		t.Errorf("expected default buffer %d, got %d", defaultBufferSize, cap(ch))
	}
	select {
	case evt := <-ch:
		t.Errorf("late subscriber received %v", evt)
	default:
	}
}
