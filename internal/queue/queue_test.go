package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	body, _ := json.Marshal(map[string]string{"roll_no": "21CS001"})
	if err := q.Publish(ctx, Message{Type: "mark", Body: body}); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume error: %v", err)
	}

	select {
	case msg := <-messages:
		if msg.Type != "mark" {
			t.Fatalf("expected type mark, got %s", msg.Type)
		}
		var payload map[string]string
		if err := json.Unmarshal(msg.Body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		if payload["roll_no"] != "21CS001" {
			t.Fatalf("unexpected payload %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewInMemory(0)
	if err := q.Publish(ctx, Message{Type: "mark"}); err == nil {
		t.Fatalf("expected error publishing to full queue with cancelled context")
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(1)
	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume error: %v", err)
	}
	cancel()

	select {
	case _, open := <-messages:
		if open {
			t.Fatalf("expected channel closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for channel close")
	}
}
