package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/wenbo68/paperparrot/internal/agent"
	"github.com/wenbo68/paperparrot/internal/store"
	"github.com/wenbo68/paperparrot/internal/uploads"
	"github.com/wenbo68/paperparrot/internal/util"
)

// Store is the server-of-record surface the engine depends on.
type Store interface {
	GetConversation(ctx context.Context, conversationID string) (store.Conversation, error)
	UpsertConversation(ctx context.Context, conversation store.Conversation) error
	ListConversations(ctx context.Context, userID string) ([]store.Conversation, error)
	RenameConversation(ctx context.Context, conversationID, userID, name string) error
	DeleteConversation(ctx context.Context, conversationID, userID string) error
	TouchConversation(ctx context.Context, conversationID string) error
	InsertFile(ctx context.Context, file store.File) error
	GetFileWithOwner(ctx context.Context, fileID string) (store.File, string, error)
	ListFiles(ctx context.Context, conversationID string) ([]store.File, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// Gateway is the remote chat/indexing boundary.
type Gateway interface {
	Chat(ctx context.Context, conversationID, message string) (agent.ChatResult, error)
	History(ctx context.Context, conversationID string) ([]agent.Message, error)
	IndexFile(ctx context.Context, request agent.IndexFileRequest) error
	DeleteFile(ctx context.Context, fileID, conversationID string) error
	DeleteConversation(ctx context.Context, conversationID string) error
}

// Uploader stores raw file bytes and returns a stable URL and key.
type Uploader interface {
	Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (uploads.Object, error)
	Remove(ctx context.Context, key string) error
}

// Notifier receives the user-visible error surface (the toast channel in
// the web client). Best-effort secondary failures never reach it.
type Notifier interface {
	Error(conversationID, message string)
}

// LogNotifier is the production Notifier: user-visible errors also land in
// the structured log.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Error(conversationID, message string) {
	n.Log.Error().Str("conversation_id", conversationID).Msg(message)
}

type conversationState struct {
	mu               sync.Mutex
	snap             Snapshot
	messagesGen      uint64
	filesGen         uint64
	hydratedMessages bool
	hydratedFiles    bool
	sendPending      *Mutation
	// pendingFiles reserves cap slots for uploads still in flight, so two
	// concurrent batches cannot both pass the capacity check and together
	// push the conversation past MaxFiles.
	pendingFiles int
}

type listState struct {
	mu       sync.Mutex
	entries  []ConversationInfo
	gen      uint64
	hydrated bool
}

// Engine applies the optimistic-update protocol for every mutating action
// and keeps one snapshot per conversation plus one conversation list per
// user. Each snapshot has a single writer: all transitions happen under its
// state lock, so a reader never observes a half-applied rollback.
type Engine struct {
	store    Store
	gateway  Gateway
	uploader Uploader
	notifier Notifier
	log      zerolog.Logger

	mu            sync.Mutex
	conversations map[string]*conversationState
	lists         map[string]*listState
	active        map[string]string

	background sync.WaitGroup
}

func NewEngine(st Store, gw Gateway, up Uploader, notifier Notifier, log zerolog.Logger) *Engine {
	return &Engine{
		store:         st,
		gateway:       gw,
		uploader:      up,
		notifier:      notifier,
		log:           log.With().Str("component", "reconcile").Logger(),
		conversations: make(map[string]*conversationState),
		lists:         make(map[string]*listState),
		active:        make(map[string]string),
	}
}

// Flush waits for every scheduled background refresh and fire-and-forget
// call to settle. Used by tests and graceful shutdown.
func (e *Engine) Flush() {
	e.background.Wait()
}

func (e *Engine) state(conversationID string) *conversationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.conversations[conversationID]
	if !ok {
		st = &conversationState{snap: Snapshot{ConversationID: conversationID}}
		e.conversations[conversationID] = st
	}
	return st
}

func (e *Engine) list(userID string) *listState {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls, ok := e.lists[userID]
	if !ok {
		ls = &listState{}
		e.lists[userID] = ls
	}
	return ls
}

// authorize checks conversation ownership before any snapshot or gateway
// work. A conversation missing from the server of record is treated as a
// not-yet-created client-minted one and passes.
func (e *Engine) authorize(ctx context.Context, userID, conversationID string) error {
	rec, err := e.store.GetConversation(ctx, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup conversation: %w", err)
	}
	if rec.UserID != userID {
		return ErrNotOwned
	}
	return nil
}

// Snapshot returns a copy of the current believed state of a conversation,
// hydrating messages and files on first access.
func (e *Engine) Snapshot(ctx context.Context, userID, conversationID string) (Snapshot, error) {
	if err := e.authorize(ctx, userID, conversationID); err != nil {
		return Snapshot{}, err
	}
	st := e.state(conversationID)
	if err := e.hydrateFiles(ctx, st); err != nil {
		return Snapshot{}, err
	}
	e.hydrateMessages(ctx, st)

	e.mu.Lock()
	e.active[userID] = conversationID
	e.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snap.clone(), nil
}

// IsAwaitingReply is derived from the snapshot itself, so the thinking
// state self-heals even if mutation bookkeeping is lost.
func (e *Engine) IsAwaitingReply(conversationID string) bool {
	st := e.state(conversationID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snap.AwaitingReply()
}

// hydrateMessages loads the authoritative history on first access. A
// gateway failure degrades to an empty history rather than blocking the
// snapshot; the next refresh reconciles.
func (e *Engine) hydrateMessages(ctx context.Context, st *conversationState) {
	st.mu.Lock()
	if st.hydratedMessages {
		st.mu.Unlock()
		return
	}
	gen := st.messagesGen
	id := st.snap.ConversationID
	st.mu.Unlock()

	history, err := e.gateway.History(ctx, id)
	if err != nil {
		e.log.Warn().Err(err).Str("conversation_id", id).Msg("history hydration failed")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.messagesGen != gen {
		return
	}
	st.snap.Messages = fromAgentHistory(history)
	st.hydratedMessages = true
}

func (e *Engine) hydrateFiles(ctx context.Context, st *conversationState) error {
	st.mu.Lock()
	if st.hydratedFiles {
		st.mu.Unlock()
		return nil
	}
	gen := st.filesGen
	id := st.snap.ConversationID
	st.mu.Unlock()

	records, err := e.store.ListFiles(ctx, id)
	if err != nil {
		return fmt.Errorf("hydrate files: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.filesGen != gen {
		return nil
	}
	st.snap.Files = fromFileRecords(records)
	st.hydratedFiles = true
	return nil
}

// SendMessage runs the optimistic send protocol: append the user message,
// lazily create the conversation on its first turn, call the chat gateway,
// then append the answer or roll back. A trailing history refresh
// reconciles with the agent's durable state either way.
func (e *Engine) SendMessage(ctx context.Context, userID, conversationID, text string) (agent.ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return agent.ChatResult{}, ErrEmptyMessage
	}
	if err := e.authorize(ctx, userID, conversationID); err != nil {
		return agent.ChatResult{}, err
	}

	st := e.state(conversationID)
	e.hydrateMessages(ctx, st)

	st.mu.Lock()
	if st.snap.AwaitingReply() || (st.sendPending != nil && st.sendPending.Pending()) {
		st.mu.Unlock()
		return agent.ChatResult{}, ErrReplyPending
	}
	rollback := st.snap.clone()
	// Guard against a duplicate optimistic insert when the same message was
	// already pre-seeded (e.g. the initial-query handoff on a new chat).
	last := len(st.snap.Messages) - 1
	if last < 0 || st.snap.Messages[last].Role != RoleUser || st.snap.Messages[last].Content != text {
		st.snap.Messages = append(st.snap.Messages, Message{Role: RoleUser, Content: text})
	}
	st.messagesGen++
	mutation := newMutation(KindSendMessage, rollback)
	st.sendPending = mutation
	firstTurn := len(st.snap.Messages) <= 1
	st.mu.Unlock()

	fail := func(cause error) (agent.ChatResult, error) {
		st.mu.Lock()
		st.snap.Messages = rollback.Messages
		st.messagesGen++
		st.sendPending = nil
		st.mu.Unlock()
		mutation.Resolve(OutcomeRolledBack)
		e.notifier.Error(conversationID, "Failed to send message: "+cause.Error())
		e.scheduleMessagesRefresh(conversationID)
		return agent.ChatResult{}, fmt.Errorf("send message: %w", cause)
	}

	if firstTurn {
		if err := e.store.UpsertConversation(ctx, store.Conversation{
			ID:     conversationID,
			Name:   defaultName(text),
			UserID: userID,
		}); err != nil {
			return fail(err)
		}
		e.bumpList(userID)
		e.scheduleListRefresh(userID)
	}

	result, err := e.gateway.Chat(ctx, conversationID, text)
	if err != nil {
		return fail(err)
	}

	st.mu.Lock()
	st.snap.Messages = append(st.snap.Messages, Message{Role: RoleAssistant, Content: result.Answer})
	st.messagesGen++
	st.sendPending = nil
	st.mu.Unlock()
	mutation.Resolve(OutcomeCommitted)

	if err := e.store.TouchConversation(ctx, conversationID); err != nil {
		e.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("touch conversation failed")
	}
	e.scheduleMessagesRefresh(conversationID)
	return result, nil
}

// Upload is one file of an upload batch.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type UploadFailure struct {
	Name string
	Err  error
}

type UploadResult struct {
	ConversationID string
	Stored         []FileRef
	Failed         []UploadFailure
}

// UploadFiles stores, persists and indexes a batch of files. An empty
// conversationID mints a new conversation, created upstream before the new
// identifier is returned. Each file's pipeline fails independently; the
// snapshot and the trailing refresh reflect exactly what succeeded.
func (e *Engine) UploadFiles(ctx context.Context, userID, conversationID string, batch []Upload) (UploadResult, error) {
	if len(batch) == 0 {
		return UploadResult{}, ErrEmptyBatch
	}

	minted := conversationID == ""
	if minted {
		conversationID = util.NewConversationID()
	} else if err := e.authorize(ctx, userID, conversationID); err != nil {
		return UploadResult{}, err
	}

	st := e.state(conversationID)
	if !minted {
		if err := e.hydrateFiles(ctx, st); err != nil {
			return UploadResult{}, err
		}
	}

	// Capacity is checked against the snapshot before anything is written
	// or uploaded; an over-sized batch never reaches the network. The
	// batch's slots are reserved under the same lock, so a concurrent
	// batch sees them as taken and cannot breach the cap.
	st.mu.Lock()
	available := st.snap.Availability() - st.pendingFiles
	if available < 0 {
		available = 0
	}
	if len(batch) > available {
		st.mu.Unlock()
		return UploadResult{}, fmt.Errorf("%w: %d slots left", ErrTooManyFiles, available)
	}
	st.pendingFiles += len(batch)
	st.mu.Unlock()

	// Files reference the conversation row, so a not-yet-created
	// conversation is created here; a minted ID is only handed back once
	// this succeeds.
	if err := e.store.UpsertConversation(ctx, store.Conversation{
		ID:     conversationID,
		Name:   "New Chat (File)",
		UserID: userID,
	}); err != nil {
		st.mu.Lock()
		st.pendingFiles -= len(batch)
		st.mu.Unlock()
		return UploadResult{}, fmt.Errorf("create conversation: %w", err)
	}
	if minted {
		e.bumpList(userID)
		e.scheduleListRefresh(userID)
	}

	result := UploadResult{ConversationID: conversationID}
	var resultMu sync.Mutex

	workers := pool.New().WithMaxGoroutines(MaxFiles)
	for _, item := range batch {
		workers.Go(func() {
			ref, err := e.processUpload(ctx, conversationID, item)

			// A stored file now counts through the snapshot itself; a
			// failed one frees its slot either way.
			st.mu.Lock()
			st.pendingFiles--
			st.mu.Unlock()

			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, UploadFailure{Name: item.Name, Err: err})
				return
			}
			result.Stored = append(result.Stored, ref)
		})
	}
	workers.Wait()

	if len(result.Failed) > 0 {
		e.notifier.Error(conversationID, fmt.Sprintf("%d of %d files failed to process", len(result.Failed), len(batch)))
	}
	e.scheduleFilesRefresh(conversationID)
	return result, nil
}

// removeObject drops stored bytes that no longer have a backing row.
// Orphaned objects are harmless, so a failure is only logged.
func (e *Engine) removeObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := e.uploader.Remove(ctx, key); err != nil {
		e.log.Warn().Err(err).Str("key", key).Msg("object cleanup failed")
	}
}

// processUpload runs one file through upload, persist and index. An index
// failure compensates by removing the fresh row so the file list never
// shows a document the agent cannot answer about.
func (e *Engine) processUpload(ctx context.Context, conversationID string, item Upload) (FileRef, error) {
	obj, err := e.uploader.Upload(ctx, item.Name, item.Reader, item.Size, item.ContentType)
	if err != nil {
		return FileRef{}, fmt.Errorf("upload %s: %w", item.Name, err)
	}

	record := store.File{
		ID:             uuid.NewString(),
		Name:           item.Name,
		URL:            obj.URL,
		Key:            obj.Key,
		ConversationID: conversationID,
	}
	if err := e.store.InsertFile(ctx, record); err != nil {
		e.removeObject(ctx, obj.Key)
		return FileRef{}, fmt.Errorf("persist %s: %w", item.Name, err)
	}

	if err := e.gateway.IndexFile(ctx, agent.IndexFileRequest{
		FileID:         record.ID,
		FileURL:        record.URL,
		FileName:       record.Name,
		ConversationID: conversationID,
	}); err != nil {
		if delErr := e.store.DeleteFile(ctx, record.ID); delErr != nil {
			e.log.Warn().Err(delErr).Str("file_id", record.ID).Msg("cleanup of unindexed file failed")
		}
		e.removeObject(ctx, obj.Key)
		return FileRef{}, fmt.Errorf("index %s: %w", item.Name, err)
	}

	ref := FileRef{ID: record.ID, Name: record.Name, URL: record.URL, Key: record.Key}
	st := e.state(conversationID)
	st.mu.Lock()
	st.snap.Files = append(st.snap.Files, ref)
	st.filesGen++
	st.mu.Unlock()
	return ref, nil
}

// DeleteFile removes a file optimistically. The server-of-record delete is
// authoritative; the agent-side index delete afterwards is best effort and
// never reverts the removal.
func (e *Engine) DeleteFile(ctx context.Context, userID, fileID string) error {
	record, ownerID, err := e.store.GetFileWithOwner(ctx, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup file: %w", err)
	}
	if ownerID != userID {
		return ErrFileNotFound
	}

	st := e.state(record.ConversationID)
	if err := e.hydrateFiles(ctx, st); err != nil {
		return err
	}

	st.mu.Lock()
	rollback := st.snap.clone()
	kept := st.snap.Files[:0]
	for _, f := range st.snap.Files {
		if f.ID != fileID {
			kept = append(kept, f)
		}
	}
	st.snap.Files = kept
	st.filesGen++
	mutation := newMutation(KindDeleteFile, rollback)
	st.mu.Unlock()

	if err := e.store.DeleteFile(ctx, fileID); err != nil {
		st.mu.Lock()
		st.snap.Files = rollback.Files
		st.filesGen++
		st.mu.Unlock()
		mutation.Resolve(OutcomeRolledBack)
		e.notifier.Error(record.ConversationID, "Failed to delete file.")
		e.scheduleFilesRefresh(record.ConversationID)
		return fmt.Errorf("delete file: %w", err)
	}
	mutation.Resolve(OutcomeCommitted)

	e.background.Add(1)
	go func() {
		defer e.background.Done()
		if err := e.gateway.DeleteFile(context.Background(), fileID, record.ConversationID); err != nil {
			e.log.Warn().Err(err).Str("file_id", fileID).Msg("index delete failed")
		}
		e.removeObject(context.Background(), record.Key)
	}()

	e.scheduleFilesRefresh(record.ConversationID)
	return nil
}

// Conversations returns the recency-ordered conversation list for a user.
func (e *Engine) Conversations(ctx context.Context, userID string) ([]ConversationInfo, error) {
	ls := e.list(userID)
	ls.mu.Lock()
	hydrated := ls.hydrated
	ls.mu.Unlock()

	if !hydrated {
		records, err := e.store.ListConversations(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		ls.mu.Lock()
		ls.entries = fromConversationRecords(records)
		ls.hydrated = true
		ls.mu.Unlock()
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := make([]ConversationInfo, len(ls.entries))
	copy(out, ls.entries)
	return out, nil
}

// CreateConversation upserts a conversation, minting the identifier when
// the caller did not bring one.
func (e *Engine) CreateConversation(ctx context.Context, userID, conversationID, name string) (ConversationInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "New Chat"
	}
	if conversationID == "" {
		conversationID = util.NewConversationID()
	} else if err := e.authorize(ctx, userID, conversationID); err != nil {
		return ConversationInfo{}, err
	}

	if err := e.store.UpsertConversation(ctx, store.Conversation{
		ID:     conversationID,
		Name:   name,
		UserID: userID,
	}); err != nil {
		return ConversationInfo{}, fmt.Errorf("create conversation: %w", err)
	}
	e.bumpList(userID)
	e.scheduleListRefresh(userID)
	return ConversationInfo{ID: conversationID, Name: name}, nil
}

// RenameConversation applies the new name to the list optimistically and
// rolls back if the server of record refuses. Back-to-back renames settle
// last-write-wins: each schedules a refresh and only the newest survives.
func (e *Engine) RenameConversation(ctx context.Context, userID, conversationID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	ls := e.list(userID)
	ls.mu.Lock()
	rollback := make([]ConversationInfo, len(ls.entries))
	copy(rollback, ls.entries)
	for i := range ls.entries {
		if ls.entries[i].ID == conversationID {
			ls.entries[i].Name = name
		}
	}
	ls.gen++
	ls.mu.Unlock()

	if err := e.store.RenameConversation(ctx, conversationID, userID, name); err != nil {
		ls.mu.Lock()
		ls.entries = rollback
		ls.gen++
		ls.mu.Unlock()
		e.notifier.Error(conversationID, "Rename chat failed. Please try again.")
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotOwned
		}
		return fmt.Errorf("rename conversation: %w", err)
	}

	e.scheduleListRefresh(userID)
	return nil
}

type DeleteConversationResult struct {
	// WasActive tells the client the deleted conversation was the open
	// one, so it must navigate away.
	WasActive bool
}

// DeleteConversation removes the conversation optimistically from the list
// view, deletes it from the server of record (files cascade there), then
// fires a best-effort delete at the agent backend.
func (e *Engine) DeleteConversation(ctx context.Context, userID, conversationID string) (DeleteConversationResult, error) {
	ls := e.list(userID)
	ls.mu.Lock()
	rollback := make([]ConversationInfo, len(ls.entries))
	copy(rollback, ls.entries)
	kept := ls.entries[:0]
	for _, entry := range ls.entries {
		if entry.ID != conversationID {
			kept = append(kept, entry)
		}
	}
	ls.entries = kept
	ls.gen++
	ls.mu.Unlock()

	if err := e.store.DeleteConversation(ctx, conversationID, userID); err != nil {
		ls.mu.Lock()
		ls.entries = rollback
		ls.gen++
		ls.mu.Unlock()
		e.notifier.Error(conversationID, "Delete chat failed. Please try again.")
		if errors.Is(err, sql.ErrNoRows) {
			return DeleteConversationResult{}, ErrNotOwned
		}
		return DeleteConversationResult{}, fmt.Errorf("delete conversation: %w", err)
	}

	e.mu.Lock()
	delete(e.conversations, conversationID)
	wasActive := e.active[userID] == conversationID
	if wasActive {
		delete(e.active, userID)
	}
	e.mu.Unlock()

	e.background.Add(1)
	go func() {
		defer e.background.Done()
		if err := e.gateway.DeleteConversation(context.Background(), conversationID); err != nil {
			e.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("agent conversation delete failed")
		}
	}()

	e.scheduleListRefresh(userID)
	return DeleteConversationResult{WasActive: wasActive}, nil
}

// bumpList supersedes any in-flight conversation-list refresh.
func (e *Engine) bumpList(userID string) {
	ls := e.list(userID)
	ls.mu.Lock()
	ls.gen++
	ls.mu.Unlock()
}

// The generation counter is the refresh cancellation token: a refresh
// captures the aggregate's generation when scheduled and throws its result
// away if any newer mutation bumped it in the meantime, so a stale fetch
// can never clobber a fresher optimistic update.

func (e *Engine) scheduleMessagesRefresh(conversationID string) {
	st := e.state(conversationID)
	st.mu.Lock()
	gen := st.messagesGen
	st.mu.Unlock()

	e.background.Add(1)
	go func() {
		defer e.background.Done()
		history, err := e.gateway.History(context.Background(), conversationID)
		if err != nil {
			e.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("history refresh failed")
			return
		}
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.messagesGen != gen {
			return
		}
		st.snap.Messages = fromAgentHistory(history)
		st.hydratedMessages = true
	}()
}

func (e *Engine) scheduleFilesRefresh(conversationID string) {
	st := e.state(conversationID)
	st.mu.Lock()
	gen := st.filesGen
	st.mu.Unlock()

	e.background.Add(1)
	go func() {
		defer e.background.Done()
		records, err := e.store.ListFiles(context.Background(), conversationID)
		if err != nil {
			e.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("file refresh failed")
			return
		}
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.filesGen != gen {
			return
		}
		st.snap.Files = fromFileRecords(records)
		st.hydratedFiles = true
	}()
}

func (e *Engine) scheduleListRefresh(userID string) {
	ls := e.list(userID)
	ls.mu.Lock()
	gen := ls.gen
	ls.mu.Unlock()

	e.background.Add(1)
	go func() {
		defer e.background.Done()
		records, err := e.store.ListConversations(context.Background(), userID)
		if err != nil {
			e.log.Warn().Err(err).Str("user_id", userID).Msg("conversation list refresh failed")
			return
		}
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if ls.gen != gen {
			return
		}
		ls.entries = fromConversationRecords(records)
		ls.hydrated = true
	}()
}

func defaultName(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) > 30 {
		return string(runes[:30])
	}
	return firstMessage
}

func fromAgentHistory(history []agent.Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		out = append(out, Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func fromFileRecords(records []store.File) []FileRef {
	out := make([]FileRef, 0, len(records))
	for _, r := range records {
		out = append(out, FileRef{ID: r.ID, Name: r.Name, URL: r.URL, Key: r.Key})
	}
	return out
}

func fromConversationRecords(records []store.Conversation) []ConversationInfo {
	out := make([]ConversationInfo, 0, len(records))
	for _, r := range records {
		out = append(out, ConversationInfo{ID: r.ID, Name: r.Name, UpdatedAt: r.UpdatedAt})
	}
	return out
}
