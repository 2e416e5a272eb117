package reconcile

import "sync"

type MutationKind string

const (
	KindSendMessage        MutationKind = "send-message"
	KindUploadFiles        MutationKind = "upload-files"
	KindDeleteFile         MutationKind = "delete-file"
	KindRenameConversation MutationKind = "rename-conversation"
	KindDeleteConversation MutationKind = "delete-conversation"
)

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCommitted
	OutcomeRolledBack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRolledBack:
		return "rolled-back"
	default:
		return "pending"
	}
}

// Mutation is one in-flight optimistic change. It carries the pre-mutation
// snapshot for rollback and resolves exactly once: the first Resolve wins
// and every later attempt is a no-op.
type Mutation struct {
	Kind     MutationKind
	Rollback Snapshot

	mu      sync.Mutex
	outcome Outcome
}

func newMutation(kind MutationKind, rollback Snapshot) *Mutation {
	return &Mutation{Kind: kind, Rollback: rollback}
}

// Resolve transitions the mutation out of pending. It returns false when
// the mutation was already resolved, or when outcome is not terminal.
func (m *Mutation) Resolve(outcome Outcome) bool {
	if outcome == OutcomePending {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcome != OutcomePending {
		return false
	}
	m.outcome = outcome
	return true
}

func (m *Mutation) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

func (m *Mutation) Pending() bool {
	return m.Outcome() == OutcomePending
}
