package app

import (
	"context"
	"errors"
	"testing"

	"github.com/wenbo68/paperparrot/internal/store"
)

func TestLoginDefaultsBlankName(t *testing.T) {
	var seenName string
	fs := &fakeStore{
		ensureUserByNameFn: func(_ context.Context, name string) (store.User, error) {
			seenName = name
			return store.User{ID: "u1", DisplayName: name}, nil
		},
	}
	svc, _ := newTestService(fs, &fakeEngine{})

	sess, err := svc.Login(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if seenName != "User" {
		t.Errorf("expected blank name to default to User, got %q", seenName)
	}
	if sess.Token == "" || sess.RefreshToken == "" {
		t.Fatalf("expected a full token pair, got %+v", sess)
	}
}

func TestSessionFromTokenRoundTrip(t *testing.T) {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, DisplayName: "Avery"}, nil
		},
	}
	svc, _ := newTestService(fs, &fakeEngine{})

	issued, err := svc.Login(context.Background(), "Avery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	sess, err := svc.SessionFromToken(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("SessionFromToken() error = %v", err)
	}
	if sess.UserID != "u1" || sess.UserName != "Avery" {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, sessions := newTestService(&fakeStore{}, &fakeEngine{})

	issued, err := svc.Login(context.Background(), "Avery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), issued.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if rotated.RefreshToken == issued.RefreshToken {
		t.Fatal("refresh must mint a new refresh token")
	}

	// The presented token is single use.
	if _, err := svc.Refresh(context.Background(), issued.RefreshToken); err == nil {
		t.Fatal("expected the old refresh token to be revoked")
	}
	if len(sessions.tokens) != 1 {
		t.Fatalf("expected exactly one live refresh session, got %d", len(sessions.tokens))
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _ := newTestService(&fakeStore{}, &fakeEngine{})

	issued, err := svc.Login(context.Background(), "Avery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := svc.Logout(context.Background(), issued.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.Refresh(context.Background(), issued.RefreshToken); err == nil {
		t.Fatal("expected the refresh token to be revoked after logout")
	}
}

func TestRenameConversationRejectsOversizedName(t *testing.T) {
	svc, _ := newTestService(&fakeStore{}, &fakeEngine{
		renameConversationFn: func(context.Context, string, string, string) error {
			t.Fatal("engine must not be called for an oversized name")
			return nil
		},
	})

	long := make([]rune, maxConversationNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.RenameConversation(context.Background(), Session{UserID: "u1"}, "conv-1", string(long))
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected a DomainError, got %v", err)
	}
	if domainErr.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected code %q", domainErr.Code)
	}
}

func TestPingDelegates(t *testing.T) {
	wantErr := errors.New("connection failed")
	fs := &fakeStore{pingFn: func(context.Context) error { return wantErr }}
	svc, _ := newTestService(fs, &fakeEngine{})

	if err := svc.Ping(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("Ping() = %v, want %v", err, wantErr)
	}
}
