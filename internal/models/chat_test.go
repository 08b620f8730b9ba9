package models

import (
	"encoding/json"
	"testing"
)

func TestChatSessionClone(t *testing.T) {
	active := "c1"
	original := &ChatSession{
		ActiveID:      &active,
		Conversations: []json.RawMessage{json.RawMessage(`{"id":"c1"}`)},
		UpdatedAt:     42,
	}

	clone := original.Clone()
	if clone == original {
		t.Fatalf("expected a distinct session")
	}
	if clone.ActiveID == nil || *clone.ActiveID != "c1" || clone.UpdatedAt != 42 {
		t.Fatalf("clone must carry the same fields: %+v", clone)
	}
	if len(clone.Conversations) != 1 {
		t.Fatalf("expected one conversation, got %d", len(clone.Conversations))
	}

	original.Conversations = append(original.Conversations, json.RawMessage(`{"id":"c2"}`))
	original.Conversations[0] = json.RawMessage(`{"id":"changed"}`)
	if len(clone.Conversations) != 1 || string(clone.Conversations[0]) != `{"id":"c1"}` {
		t.Fatalf("mutating the original must not reach the clone: %v", clone.Conversations)
	}
}

func TestChatSessionClone_EmptySession(t *testing.T) {
	clone := (&ChatSession{}).Clone()
	if clone.Conversations == nil {
		t.Fatalf("clone must materialize an empty conversation list")
	}
	if clone.ActiveID != nil {
		t.Fatalf("expected nil active id")
	}
}
