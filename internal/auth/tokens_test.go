package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)

	token, expiresAt, err := issuer.Issue("user-1", "family-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiry should be in the future: %v", expiresAt)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "user-1" || claims.SessionID != "family-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	token, _, err := issuer.Issue("user-1", "family-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenIssuer("other-secret", time.Minute)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected signature failure, got %v", err)
	}

	if _, err := issuer.Parse(""); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected empty token rejected, got %v", err)
	}

	issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestActorContext(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("expected no actor on empty context")
	}
	ctx := WithActor(context.Background(), Actor{UserID: "u1", SessionID: "s1"})
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID != "u1" || actor.SessionID != "s1" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}
