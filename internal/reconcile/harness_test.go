package reconcile

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wenbo68/paperparrot/internal/agent"
	"github.com/wenbo68/paperparrot/internal/store"
	"github.com/wenbo68/paperparrot/internal/uploads"
)

// memoryStore is an in-memory server of record. Failure hooks let tests
// inject errors per operation.
type memoryStore struct {
	mu            sync.Mutex
	conversations map[string]store.Conversation
	files         map[string]store.File

	insertFileCalls int

	failUpsert             error
	failInsertFile         error
	failDeleteFile         error
	failRename             error
	failDeleteConversation error

	// upsertBlock, when set, stalls UpsertConversation until the channel
	// is closed. Lets tests hold one upload batch mid-flight while a
	// second one races the capacity check.
	upsertBlock chan struct{}
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		conversations: make(map[string]store.Conversation),
		files:         make(map[string]store.File),
	}
}

func (m *memoryStore) GetConversation(_ context.Context, conversationID string) (store.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.conversations[conversationID]
	if !ok {
		return store.Conversation{}, sql.ErrNoRows
	}
	return rec, nil
}

func (m *memoryStore) UpsertConversation(_ context.Context, conversation store.Conversation) error {
	m.mu.Lock()
	block := m.upsertBlock
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert != nil {
		return m.failUpsert
	}
	if _, exists := m.conversations[conversation.ID]; exists {
		return nil
	}
	m.conversations[conversation.ID] = conversation
	return nil
}

func (m *memoryStore) ListConversations(_ context.Context, userID string) ([]store.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Conversation, 0)
	for _, rec := range m.conversations {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryStore) RenameConversation(_ context.Context, conversationID, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRename != nil {
		return m.failRename
	}
	rec, ok := m.conversations[conversationID]
	if !ok || rec.UserID != userID {
		return sql.ErrNoRows
	}
	rec.Name = name
	m.conversations[conversationID] = rec
	return nil
}

func (m *memoryStore) DeleteConversation(_ context.Context, conversationID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeleteConversation != nil {
		return m.failDeleteConversation
	}
	rec, ok := m.conversations[conversationID]
	if !ok || rec.UserID != userID {
		return sql.ErrNoRows
	}
	delete(m.conversations, conversationID)
	for id, f := range m.files {
		if f.ConversationID == conversationID {
			delete(m.files, id)
		}
	}
	return nil
}

func (m *memoryStore) TouchConversation(context.Context, string) error { return nil }

func (m *memoryStore) InsertFile(_ context.Context, file store.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertFileCalls++
	if m.failInsertFile != nil {
		return m.failInsertFile
	}
	m.files[file.ID] = file
	return nil
}

func (m *memoryStore) GetFileWithOwner(_ context.Context, fileID string) (store.File, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[fileID]
	if !ok {
		return store.File{}, "", sql.ErrNoRows
	}
	owner := m.conversations[file.ConversationID].UserID
	return file, owner, nil
}

func (m *memoryStore) ListFiles(_ context.Context, conversationID string) ([]store.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.File, 0)
	for _, f := range m.files {
		if f.ConversationID == conversationID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteFile(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeleteFile != nil {
		return m.failDeleteFile
	}
	if _, ok := m.files[fileID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.files, fileID)
	return nil
}

func (m *memoryStore) seedConversation(id, userID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[id] = store.Conversation{ID: id, Name: name, UserID: userID}
}

func (m *memoryStore) seedFile(id, conversationID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = store.File{ID: id, Name: name, URL: "https://files.local/" + id, Key: "key-" + id, ConversationID: conversationID}
}

// memoryGateway plays the agent backend: a successful chat appends the
// user message and the answer to its durable per-conversation history, so
// background refreshes see the authoritative state.
type memoryGateway struct {
	mu      sync.Mutex
	history map[string][]agent.Message
	answer  string

	chatCalls   int
	indexCalls  int
	deleteCalls int

	failChat   error
	failIndex  error
	failDelete error

	// historyBlock, when set, stalls History calls until the channel is
	// closed. Lets tests order a refresh against a newer mutation.
	historyBlock chan struct{}
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{history: make(map[string][]agent.Message), answer: "An answer."}
}

func (g *memoryGateway) Chat(_ context.Context, conversationID, message string) (agent.ChatResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chatCalls++
	if g.failChat != nil {
		return agent.ChatResult{}, g.failChat
	}
	g.history[conversationID] = append(g.history[conversationID],
		agent.Message{Role: "user", Content: message},
		agent.Message{Role: "assistant", Content: g.answer},
	)
	return agent.ChatResult{Answer: g.answer, Sources: "documents"}, nil
}

func (g *memoryGateway) History(_ context.Context, conversationID string) ([]agent.Message, error) {
	g.mu.Lock()
	block := g.historyBlock
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]agent.Message, len(g.history[conversationID]))
	copy(out, g.history[conversationID])
	return out, nil
}

func (g *memoryGateway) IndexFile(context.Context, agent.IndexFileRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.indexCalls++
	return g.failIndex
}

func (g *memoryGateway) DeleteFile(context.Context, string, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteCalls++
	return g.failDelete
}

func (g *memoryGateway) DeleteConversation(context.Context, string) error { return nil }

type memoryUploader struct {
	mu          sync.Mutex
	uploadCalls int
	removeCalls int
	failUpload  error
	failNames   map[string]error
}

func (u *memoryUploader) Remove(_ context.Context, _ string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.removeCalls++
	return nil
}

func (u *memoryUploader) Upload(_ context.Context, name string, reader io.Reader, _ int64, _ string) (uploads.Object, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploadCalls++
	if u.failUpload != nil {
		return uploads.Object{}, u.failUpload
	}
	if err, ok := u.failNames[name]; ok {
		return uploads.Object{}, err
	}
	if reader != nil {
		_, _ = io.Copy(io.Discard, reader)
	}
	return uploads.Object{URL: "https://files.local/" + name, Key: "key-" + name}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Error(_, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

type harness struct {
	engine   *Engine
	store    *memoryStore
	gateway  *memoryGateway
	uploader *memoryUploader
	notifier *recordingNotifier
}

func newHarness() *harness {
	st := newMemoryStore()
	gw := newMemoryGateway()
	up := &memoryUploader{}
	nt := &recordingNotifier{}
	return &harness{
		engine:   NewEngine(st, gw, up, nt, zerolog.Nop()),
		store:    st,
		gateway:  gw,
		uploader: up,
		notifier: nt,
	}
}

func upload(name string) Upload {
	return Upload{
		Name:        name,
		ContentType: "application/pdf",
		Size:        4,
		Reader:      bytes.NewReader([]byte("data")),
	}
}
