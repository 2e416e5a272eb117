package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wenbo68/paperparrot/internal/agent"
	"github.com/wenbo68/paperparrot/internal/auth"
	"github.com/wenbo68/paperparrot/internal/config"
	"github.com/wenbo68/paperparrot/internal/reconcile"
	"github.com/wenbo68/paperparrot/internal/store"
	"github.com/wenbo68/paperparrot/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	EnsureUserByName(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	Ping(ctx context.Context) error
}

// RefreshStore is implemented by session.RedisStore and, through
// PostgresSessions, by the relational fallback.
type RefreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// PostgresSessions adapts the relational refresh-session tables to the
// interface the Redis store implements natively.
type PostgresSessions struct {
	Store *store.PostgresStore
}

func (p PostgresSessions) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	return p.Store.SaveRefreshSession(ctx, tokenHash, user.ID, expiresAt)
}

func (p PostgresSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	return p.Store.LookupRefreshSession(ctx, tokenHash)
}

func (p PostgresSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return p.Store.RevokeRefreshSession(ctx, tokenHash)
}

type conversationEngine interface {
	Snapshot(ctx context.Context, userID, conversationID string) (reconcile.Snapshot, error)
	SendMessage(ctx context.Context, userID, conversationID, text string) (agent.ChatResult, error)
	UploadFiles(ctx context.Context, userID, conversationID string, batch []reconcile.Upload) (reconcile.UploadResult, error)
	DeleteFile(ctx context.Context, userID, fileID string) error
	Conversations(ctx context.Context, userID string) ([]reconcile.ConversationInfo, error)
	CreateConversation(ctx context.Context, userID, conversationID, name string) (reconcile.ConversationInfo, error)
	RenameConversation(ctx context.Context, userID, conversationID, name string) error
	DeleteConversation(ctx context.Context, userID, conversationID string) (reconcile.DeleteConversationResult, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions RefreshStore
	engine   conversationEngine
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions RefreshStore, engine *reconcile.Engine) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		engine:   engine,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingSessions probes the session backend when it supports health checks
// (Redis does; the Postgres fallback is covered by Ping).
func (s *Service) PingSessions(ctx context.Context) (checked bool, err error) {
	pinger, ok := s.sessions.(interface{ Ping(context.Context) error })
	if !ok {
		return false, nil
	}
	return true, pinger.Ping(ctx)
}

func (s *Service) Login(ctx context.Context, name string) (Session, error) {
	userName := strings.TrimSpace(name)
	if userName == "" {
		userName = "User"
	}

	user, err := s.store.EnsureUserByName(ctx, userName)
	if err != nil {
		return Session{}, err
	}

	return s.issueSession(ctx, user)
}

// Refresh rotates the refresh token: the presented one is revoked and a
// fresh pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Workspace is the full believed state of one conversation: messages,
// files, remaining file capacity and whether a reply is outstanding.
func (s *Service) Workspace(ctx context.Context, session Session, conversationID string) (map[string]any, error) {
	snap, err := s.engine.Snapshot(ctx, session.UserID, conversationID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"conversationId": snap.ConversationID,
		"messages":       messageItems(snap.Messages),
		"files":          fileItems(snap.Files),
		"availability":   snap.Availability(),
		"awaitingReply":  snap.AwaitingReply(),
	}, nil
}

func (s *Service) History(ctx context.Context, session Session, conversationID string) (map[string]any, error) {
	snap, err := s.engine.Snapshot(ctx, session.UserID, conversationID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"conversationId": snap.ConversationID,
		"messages":       messageItems(snap.Messages),
		"awaitingReply":  snap.AwaitingReply(),
	}, nil
}

func (s *Service) Files(ctx context.Context, session Session, conversationID string) (map[string]any, error) {
	snap, err := s.engine.Snapshot(ctx, session.UserID, conversationID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"conversationId": snap.ConversationID,
		"files":          fileItems(snap.Files),
		"availability":   snap.Availability(),
	}, nil
}

func (s *Service) SendMessage(ctx context.Context, session Session, conversationID, message string) (map[string]any, error) {
	result, err := s.engine.SendMessage(ctx, session.UserID, conversationID, message)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{
		"answer":  result.Answer,
		"sources": result.Sources,
	}
	if snap, err := s.engine.Snapshot(ctx, session.UserID, conversationID); err == nil {
		payload["messages"] = messageItems(snap.Messages)
	}
	return payload, nil
}

func (s *Service) UploadFiles(ctx context.Context, session Session, conversationID string, batch []reconcile.Upload) (map[string]any, error) {
	result, err := s.engine.UploadFiles(ctx, session.UserID, conversationID, batch)
	if err != nil {
		return nil, err
	}
	failed := make([]map[string]any, 0, len(result.Failed))
	for _, failure := range result.Failed {
		failed = append(failed, map[string]any{
			"name":  failure.Name,
			"error": failure.Err.Error(),
		})
	}
	return map[string]any{
		"conversationId": result.ConversationID,
		"stored":         fileItems(result.Stored),
		"failed":         failed,
	}, nil
}

func (s *Service) DeleteFile(ctx context.Context, session Session, fileID string) (map[string]any, error) {
	if err := s.engine.DeleteFile(ctx, session.UserID, fileID); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

func (s *Service) ListConversations(ctx context.Context, session Session) (map[string]any, error) {
	entries, err := s.engine.Conversations(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		items = append(items, map[string]any{
			"id":        entry.ID,
			"name":      entry.Name,
			"updatedAt": entry.UpdatedAt.Format(time.RFC3339),
		})
	}
	return map[string]any{"conversations": items}, nil
}

// maxConversationNameLen caps user-supplied conversation names.
const maxConversationNameLen = 200

func (s *Service) CreateConversation(ctx context.Context, session Session, conversationID, name string) (map[string]any, error) {
	if len([]rune(name)) > maxConversationNameLen {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is too long", nil)
	}
	info, err := s.engine.CreateConversation(ctx, session.UserID, conversationID, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":   info.ID,
		"name": info.Name,
	}, nil
}

func (s *Service) RenameConversation(ctx context.Context, session Session, conversationID, name string) (map[string]any, error) {
	if len([]rune(name)) > maxConversationNameLen {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is too long", nil)
	}
	if err := s.engine.RenameConversation(ctx, session.UserID, conversationID, name); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

func (s *Service) DeleteConversation(ctx context.Context, session Session, conversationID string) (map[string]any, error) {
	result, err := s.engine.DeleteConversation(ctx, session.UserID, conversationID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ok":        true,
		"wasActive": result.WasActive,
	}, nil
}

func messageItems(messages []reconcile.Message) []map[string]any {
	items := make([]map[string]any, 0, len(messages))
	for _, message := range messages {
		items = append(items, map[string]any{
			"role":    message.Role,
			"content": message.Content,
		})
	}
	return items
}

func fileItems(files []reconcile.FileRef) []map[string]any {
	items := make([]map[string]any, 0, len(files))
	for _, file := range files {
		items = append(items, map[string]any{
			"id":   file.ID,
			"name": file.Name,
			"url":  file.URL,
		})
	}
	return items
}
