package util

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewIDPrefix(t *testing.T) {
	id := NewID("rft")
	if len(id) != len("rft_")+32 {
		t.Fatalf("unexpected id length: %q", id)
	}
	if id[:4] != "rft_" {
		t.Fatalf("expected rft_ prefix, got %q", id)
	}
	if bare := NewID(""); len(bare) != 32 {
		t.Fatalf("unexpected bare id length: %q", bare)
	}
}

func TestNewConversationIDIsUUID(t *testing.T) {
	id := NewConversationID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("conversation id must parse as a UUID: %v", err)
	}
	if NewConversationID() == id {
		t.Fatal("ids must be unique")
	}
}
