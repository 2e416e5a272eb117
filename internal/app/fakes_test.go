package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wenbo68/paperparrot/internal/agent"
	"github.com/wenbo68/paperparrot/internal/config"
	"github.com/wenbo68/paperparrot/internal/reconcile"
	"github.com/wenbo68/paperparrot/internal/session"
	"github.com/wenbo68/paperparrot/internal/store"
)

type fakeStore struct {
	ensureUserByNameFn func(context.Context, string) (store.User, error)
	getUserByIDFn      func(context.Context, string) (store.User, error)
	pingFn             func(context.Context) error
}

func (f *fakeStore) EnsureUserByName(ctx context.Context, name string) (store.User, error) {
	if f.ensureUserByNameFn != nil {
		return f.ensureUserByNameFn(ctx, name)
	}
	return store.User{ID: "u1", DisplayName: name}, nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, userID)
	}
	return store.User{ID: userID, DisplayName: "Avery"}, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

// fakeSessions is an in-memory refreshStore.
type fakeSessions struct {
	mu     sync.Mutex
	tokens map[string]store.User
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: make(map[string]store.User)}
}

func (f *fakeSessions) SaveRefreshSession(_ context.Context, tokenHash string, user store.User, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tokenHash] = user
	return nil
}

func (f *fakeSessions) LookupRefreshSession(_ context.Context, tokenHash string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.tokens[tokenHash]
	if !ok {
		return store.User{}, session.ErrNotFound
	}
	return user, nil
}

func (f *fakeSessions) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, tokenHash)
	return nil
}

type fakeEngine struct {
	snapshotFn           func(context.Context, string, string) (reconcile.Snapshot, error)
	sendMessageFn        func(context.Context, string, string, string) (agent.ChatResult, error)
	uploadFilesFn        func(context.Context, string, string, []reconcile.Upload) (reconcile.UploadResult, error)
	deleteFileFn         func(context.Context, string, string) error
	conversationsFn      func(context.Context, string) ([]reconcile.ConversationInfo, error)
	createConversationFn func(context.Context, string, string, string) (reconcile.ConversationInfo, error)
	renameConversationFn func(context.Context, string, string, string) error
	deleteConversationFn func(context.Context, string, string) (reconcile.DeleteConversationResult, error)
}

func (f *fakeEngine) Snapshot(ctx context.Context, userID, conversationID string) (reconcile.Snapshot, error) {
	if f.snapshotFn != nil {
		return f.snapshotFn(ctx, userID, conversationID)
	}
	return reconcile.Snapshot{ConversationID: conversationID}, nil
}

func (f *fakeEngine) SendMessage(ctx context.Context, userID, conversationID, text string) (agent.ChatResult, error) {
	if f.sendMessageFn != nil {
		return f.sendMessageFn(ctx, userID, conversationID, text)
	}
	return agent.ChatResult{Answer: "An answer."}, nil
}

func (f *fakeEngine) UploadFiles(ctx context.Context, userID, conversationID string, batch []reconcile.Upload) (reconcile.UploadResult, error) {
	if f.uploadFilesFn != nil {
		return f.uploadFilesFn(ctx, userID, conversationID, batch)
	}
	return reconcile.UploadResult{ConversationID: conversationID}, nil
}

func (f *fakeEngine) DeleteFile(ctx context.Context, userID, fileID string) error {
	if f.deleteFileFn != nil {
		return f.deleteFileFn(ctx, userID, fileID)
	}
	return nil
}

func (f *fakeEngine) Conversations(ctx context.Context, userID string) ([]reconcile.ConversationInfo, error) {
	if f.conversationsFn != nil {
		return f.conversationsFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeEngine) CreateConversation(ctx context.Context, userID, conversationID, name string) (reconcile.ConversationInfo, error) {
	if f.createConversationFn != nil {
		return f.createConversationFn(ctx, userID, conversationID, name)
	}
	return reconcile.ConversationInfo{ID: conversationID, Name: name}, nil
}

func (f *fakeEngine) RenameConversation(ctx context.Context, userID, conversationID, name string) error {
	if f.renameConversationFn != nil {
		return f.renameConversationFn(ctx, userID, conversationID, name)
	}
	return nil
}

func (f *fakeEngine) DeleteConversation(ctx context.Context, userID, conversationID string) (reconcile.DeleteConversationResult, error) {
	if f.deleteConversationFn != nil {
		return f.deleteConversationFn(ctx, userID, conversationID)
	}
	return reconcile.DeleteConversationResult{}, nil
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func newTestService(fs *fakeStore, fe *fakeEngine) (*Service, *fakeSessions) {
	sessions := newFakeSessions()
	svc := &Service{
		cfg:      testConfig(),
		store:    fs,
		sessions: sessions,
		engine:   fe,
	}
	return svc, sessions
}

func newTestServer(fs *fakeStore, fe *fakeEngine) *HTTPServer {
	svc, _ := newTestService(fs, fe)
	return NewHTTPServer(svc, "*", zerolog.Nop())
}
