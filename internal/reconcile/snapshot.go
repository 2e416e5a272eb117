// Package reconcile owns the client-visible state of every conversation:
// message lists and file sets are mutated optimistically, committed or
// rolled back against gateway outcomes, and re-synchronized with the
// server of record by generation-guarded background refreshes.
package reconcile

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxFiles is the per-conversation cap on attached documents.
const MaxFiles = 4

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type FileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Key  string `json:"key"`
}

// Snapshot is the engine's current believed state of one conversation.
type Snapshot struct {
	ConversationID string    `json:"conversationId"`
	Messages       []Message `json:"messages"`
	Files          []FileRef `json:"files"`
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{ConversationID: s.ConversationID}
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	if s.Files != nil {
		out.Files = make([]FileRef, len(s.Files))
		copy(out.Files, s.Files)
	}
	return out
}

// Availability is how many more files the conversation can hold.
func (s Snapshot) Availability() int {
	available := MaxFiles - len(s.Files)
	if available < 0 {
		return 0
	}
	return available
}

// AwaitingReply reports whether the assistant owes an answer. It is derived
// from the data itself rather than mutation bookkeeping, so a lost or stuck
// pending flag can never freeze the conversation in a thinking state.
func (s Snapshot) AwaitingReply() bool {
	if len(s.Messages) == 0 {
		return false
	}
	return s.Messages[len(s.Messages)-1].Role == RoleUser
}

// ConversationInfo is one row of the per-user conversation list aggregate.
type ConversationInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}
