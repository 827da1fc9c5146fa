package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTurnSubject(t *testing.T) {
	tests := map[string]string{
		"completed": SubjectTurnCompleted,
		"failed":    SubjectTurnFailed,
		"empty":     SubjectTurnFailed,
	}
	for status, want := range tests {
		if got := TurnSubject(status); got != want {
			t.Errorf("TurnSubject(%q) = %q, want %q", status, got, want)
		}
	}
}

func TestTurnEventOmitsEmptyErrorKind(t *testing.T) {
	data, err := json.Marshal(TurnEvent{
		SessionID: "abc",
		Status:    "completed",
		Fragments: 3,
		Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["error_kind"]; ok {
		t.Errorf("error_kind should be omitted for completed turns: %s", data)
	}
	if raw["session_id"] != "abc" {
		t.Errorf("expected session_id 'abc', got %v", raw["session_id"])
	}
}
