package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided refresh token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrRefreshTokenReused indicates an already rotated refresh token was presented again.
	// The whole session family is revoked when this happens.
	ErrRefreshTokenReused = errors.New("refresh token reused")
)

// SessionStore persists refresh-token session families.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	Find(ctx context.Context, familyID string) (Session, error)
	// Rotate replaces the family's current token hash only when it still equals
	// currentHash. It returns ErrSessionNotFound when nothing was replaced.
	Rotate(ctx context.Context, familyID, currentHash, nextHash string, expiresAt time.Time) error
	Delete(ctx context.Context, familyID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// Session is one refresh-token family. Only hashes of tokens are kept.
type Session struct {
	FamilyID          string
	UserID            string
	TokenHash         string
	PreviousTokenHash string
	ExpiresAt         time.Time
	CreatedAt         time.Time
	RotatedAt         *time.Time
}

// Manager issues access tokens and rotates refresh tokens backed by a persistent store.
type Manager struct {
	tokens     *TokenIssuer
	refreshTTL time.Duration
	store      SessionStore
	now        func() time.Time
}

// NewManager constructs a Manager that signs access tokens with issuer and keeps
// refresh tokens valid for refreshTTL.
func NewManager(tokens *TokenIssuer, refreshTTL time.Duration, store SessionStore) *Manager {
	if tokens == nil {
		panic("auth: token issuer must not be nil")
	}
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		tokens:     tokens,
		refreshTTL: refreshTTL,
		store:      store,
		now:        time.Now,
	}
}

// Issue starts a new session family for the user and returns its first token pair.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	familyID := uuid.NewString()
	secret, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}
	refreshToken := familyID + "." + secret

	now := m.now().UTC()
	session := Session{
		FamilyID:  familyID,
		UserID:    userID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: now.Add(m.refreshTTL),
		CreatedAt: now,
	}
	if err := m.store.Create(ctx, session); err != nil {
		return models.SessionTokens{}, fmt.Errorf("create session: %w", err)
	}

	return m.pair(userID, familyID, refreshToken, session.ExpiresAt)
}

// Refresh exchanges the family's current refresh token for a new pair. Presenting
// a token that was already rotated away revokes the family.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	familyID, ok := familyFromToken(refreshToken)
	if !ok {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, familyID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	presented := hashToken(refreshToken)
	switch presented {
	case session.TokenHash:
	case session.PreviousTokenHash:
		_ = m.store.Delete(ctx, familyID)
		return models.SessionTokens{}, ErrRefreshTokenReused
	default:
		return models.SessionTokens{}, ErrSessionNotFound
	}

	now := m.now().UTC()
	if now.After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, familyID)
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	secret, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}
	next := familyID + "." + secret
	expiresAt := now.Add(m.refreshTTL)

	if err := m.store.Rotate(ctx, familyID, presented, hashToken(next), expiresAt); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			// Another request rotated this token first.
			_ = m.store.Delete(ctx, familyID)
			return models.SessionTokens{}, ErrRefreshTokenReused
		}
		return models.SessionTokens{}, fmt.Errorf("rotate session: %w", err)
	}

	return m.pair(session.UserID, familyID, next, expiresAt)
}

// Authenticate verifies an access token and returns the actor it names.
func (m *Manager) Authenticate(accessToken string) (Actor, error) {
	claims, err := m.tokens.Parse(accessToken)
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: claims.UserID(), SessionID: claims.SessionID}, nil
}

// Revoke ends a single session family.
func (m *Manager) Revoke(ctx context.Context, familyID string) error {
	if familyID == "" {
		return nil
	}
	return m.store.Delete(ctx, familyID)
}

// RevokeAll ends every session family belonging to the user.
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.DeleteByUser(ctx, userID)
}

func (m *Manager) pair(userID, familyID, refreshToken string, refreshExpiresAt time.Time) (models.SessionTokens, error) {
	accessToken, accessExpiresAt, err := m.tokens.Issue(userID, familyID)
	if err != nil {
		return models.SessionTokens{}, err
	}
	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func familyFromToken(token string) (string, bool) {
	familyID, secret, ok := strings.Cut(token, ".")
	if !ok || familyID == "" || secret == "" {
		return "", false
	}
	if _, err := uuid.Parse(familyID); err != nil {
		return "", false
	}
	return familyID, true
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
