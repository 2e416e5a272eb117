package reconcile

import "testing"

func TestSnapshotCloneIsIndependent(t *testing.T) {
	original := Snapshot{
		ConversationID: "conv-1",
		Messages:       []Message{{Role: RoleUser, Content: "hello"}},
		Files:          []FileRef{{ID: "f1", Name: "a.pdf"}},
	}
	copied := original.clone()

	copied.Messages[0].Content = "changed"
	copied.Files[0].Name = "changed.pdf"

	if original.Messages[0].Content != "hello" {
		t.Fatalf("clone shares message backing array: %+v", original.Messages)
	}
	if original.Files[0].Name != "a.pdf" {
		t.Fatalf("clone shares file backing array: %+v", original.Files)
	}
}

func TestSnapshotAvailability(t *testing.T) {
	cases := []struct {
		files int
		want  int
	}{
		{0, 4},
		{1, 3},
		{4, 0},
		{5, 0},
	}
	for _, tc := range cases {
		snap := Snapshot{Files: make([]FileRef, tc.files)}
		if got := snap.Availability(); got != tc.want {
			t.Errorf("Availability() with %d files = %d, want %d", tc.files, got, tc.want)
		}
	}
}

func TestSnapshotAwaitingReply(t *testing.T) {
	var snap Snapshot
	if snap.AwaitingReply() {
		t.Fatal("empty conversation must not be awaiting a reply")
	}

	snap.Messages = append(snap.Messages, Message{Role: RoleUser, Content: "question"})
	if !snap.AwaitingReply() {
		t.Fatal("trailing user message means the assistant owes an answer")
	}

	snap.Messages = append(snap.Messages, Message{Role: RoleAssistant, Content: "answer"})
	if snap.AwaitingReply() {
		t.Fatal("trailing assistant message means the turn is settled")
	}
}
