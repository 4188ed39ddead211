package events

import (
	"log/slog"
	"testing"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(slog.New(slog.DiscardHandler))
	// must not block or panic
	hub.Publish("monitor.sample", map[string]int{"threat_score": 5})
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	hub := NewHub(slog.New(slog.DiscardHandler))
	c := hub.subscribe()

	hub.Publish("monitor.alert", "payload")

	select {
	case event := <-c.send:
		if event.Kind != "monitor.alert" {
			t.Errorf("expected monitor.alert, got %s", event.Kind)
		}
	default:
		t.Fatal("expected buffered event")
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	hub := NewHub(slog.New(slog.DiscardHandler))
	c := hub.subscribe()

	// overflow the buffer; oldest events are dropped
	for i := 0; i < clientBuffer*3; i++ {
		hub.Publish("queue.task", i)
	}

	if got := len(c.send); got != clientBuffer {
		t.Errorf("expected full buffer of %d, got %d", clientBuffer, got)
	}

	// the newest event survives
	var last Event
	for len(c.send) > 0 {
		last = <-c.send
	}
	if last.Payload != clientBuffer*3-1 {
		t.Errorf("expected newest payload %d, got %v", clientBuffer*3-1, last.Payload)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := NewHub(slog.New(slog.DiscardHandler))
	c := hub.subscribe()

	hub.unsubscribe(c)
	hub.unsubscribe(c)

	// publishing after unsubscribe must not panic on the closed channel
	hub.Publish("monitor.sample", nil)
}
