package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestManager(refreshTTL time.Duration) (*Manager, *InMemorySessionStore) {
	store := NewInMemorySessionStore()
	return NewManager(NewTokenIssuer("test-secret", time.Minute), refreshTTL, store), store
}

func familyOf(t *testing.T, token string) string {
	t.Helper()
	family, ok := familyFromToken(token)
	if !ok {
		t.Fatalf("token %q carries no family", token)
	}
	return family
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, store := newTestManager(time.Hour)
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	family := familyOf(t, tokens.RefreshToken)
	session, err := store.Find(ctx, family)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if session.TokenHash == tokens.RefreshToken || strings.Contains(session.TokenHash, ".") {
		t.Fatal("store should only keep a hash of the refresh token")
	}

	refreshed, err := manager.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if familyOf(t, refreshed.RefreshToken) != family {
		t.Fatal("rotation should stay within the family")
	}

	actor, err := manager.Authenticate(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.UserID != "user-1" || actor.SessionID != family {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _ := newTestManager(time.Hour)
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerRefreshReuseRevokesFamily(t *testing.T) {
	manager, store := newTestManager(time.Hour)
	ctx := context.Background()

	first, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := manager.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if _, err := manager.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshTokenReused) {
		t.Fatalf("expected reuse error got %v", err)
	}
	if store.Has(familyOf(t, first.RefreshToken)) {
		t.Fatal("family should be revoked after reuse")
	}
	if _, err := manager.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("latest token should be dead after reuse, got %v", err)
	}
}

func TestManagerFamiliesAreIndependent(t *testing.T) {
	manager, _ := newTestManager(time.Hour)
	ctx := context.Background()

	laptop, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	phone, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(ctx, familyOf(t, laptop.RefreshToken)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := manager.Refresh(ctx, laptop.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected revoked family, got %v", err)
	}
	phoneNext, err := manager.Refresh(ctx, phone.RefreshToken)
	if err != nil {
		t.Fatalf("other device should still refresh: %v", err)
	}

	if err := manager.RevokeAll(ctx, "user-1"); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if _, err := manager.Refresh(ctx, phoneNext.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected every family revoked, got %v", err)
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, store := newTestManager(time.Minute)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "not-a-uuid.secret"} {
		if _, err := manager.Refresh(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("token %q: expected session not found got %v", token, err)
		}
	}

	tokens, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	family := familyOf(t, tokens.RefreshToken)

	if _, err := manager.Refresh(ctx, family+".forged"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected forged token rejected got %v", err)
	}

	manager.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected refresh expired got %v", err)
	}
	if store.Has(family) {
		t.Fatal("expired family should be removed")
	}
}
