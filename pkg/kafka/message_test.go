package kafka

import (
	"testing"
)

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("booking-1").
		WithValue(map[string]string{"status": "approved"}).
		WithEventType("booking.status_changed").
		WithSource("api").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Key != "booking-1" {
		t.Errorf("expected key booking-1, got %s", msg.Key)
	}
	if msg.GetEventType() != "booking.status_changed" {
		t.Errorf("unexpected event type: %s", msg.GetEventType())
	}
	if msg.Headers[HeaderEventID] == "" {
		t.Error("expected an auto-generated event id")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected a timestamp header")
	}

	var decoded map[string]string
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("failed to decode value: %v", err)
	}
	if decoded["status"] != "approved" {
		t.Errorf("unexpected payload: %v", decoded)
	}
}

func TestMessageBuilder_EncodingFailure(t *testing.T) {
	_, err := NewMessage().
		WithKey("k").
		WithValue(func() {}). // not JSON-encodable
		Build()
	if err == nil {
		t.Fatal("expected an encoding error")
	}
}
