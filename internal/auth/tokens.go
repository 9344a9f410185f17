package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "vidtube"

// ErrInvalidAccessToken indicates the presented access token failed verification.
var ErrInvalidAccessToken = errors.New("invalid access token")

// Claims are carried by every access token. SessionID names the refresh-token
// family the token was minted for.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c Claims) UserID() string {
	return c.Subject
}

// TokenIssuer signs and verifies short-lived HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer constructs an issuer for the provided signing secret.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if secret == "" {
		panic("auth: access token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints an access token for the user bound to the given session family.
func (t *TokenIssuer) Issue(userID, sessionID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	now := t.now().UTC()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the token signature, issuer and expiry and returns its claims.
func (t *TokenIssuer) Parse(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrInvalidAccessToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidAccessToken
	}
	return claims, nil
}
