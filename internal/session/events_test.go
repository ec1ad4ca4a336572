package session_test

import (
	"testing"

	"github.com/p-n-ai/learn-tracker/internal/session"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := session.NewMemoryEventLogger()

	err := logger.LogEvent(session.Event{
		SessionID: "s-1",
		UserID:    "babu",
		EventType: session.EventNotesEdited,
		Data: map[string]any{
			"notes_len": 42,
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != session.EventNotesEdited {
		t.Errorf("EventType = %q, want notes_edited", events[0].EventType)
	}
	if events[0].ID == "" {
		t.Error("ID should be set")
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	if err := session.NewMemoryEventLogger().LogEvent(session.Event{SessionID: "s-1"}); err == nil {
		t.Fatal("expected error for empty event type")
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := session.NewPostgresEventLogger(nil)

	err := logger.LogEvent(session.Event{
		SessionID: "s-1",
		EventType: session.EventSessionOpened,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestNopEventLogger(t *testing.T) {
	var logger session.EventLogger = session.NopEventLogger{}
	if err := logger.LogEvent(session.Event{}); err != nil {
		t.Errorf("LogEvent() error = %v", err)
	}
}
