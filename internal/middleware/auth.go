package middleware

import (
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/response"
)

// AccessTokenCookie names the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// TokenAuthenticator verifies access tokens.
type TokenAuthenticator interface {
	Authenticate(accessToken string) (auth.Actor, error)
}

// Authenticate rejects requests without a valid access token and stores the
// authenticated actor on the request context.
func Authenticate(authenticator TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := AccessToken(r)
			if token == "" {
				response.Error(ctx, w, http.StatusUnauthorized, "unauthorized request")
				return
			}

			actor, err := authenticator.Authenticate(token)
			if err != nil {
				logging.FromContext(ctx).Warn("access token rejected", "error", err)
				response.Error(ctx, w, http.StatusUnauthorized, "invalid access token")
				return
			}

			ctx = auth.WithActor(ctx, actor)
			ctx = logging.WithUser(ctx, actor.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the actor when a valid access token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(authenticator TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := AccessToken(r); token != "" {
				if actor, err := authenticator.Authenticate(token); err == nil {
					ctx := auth.WithActor(r.Context(), actor)
					ctx = logging.WithUser(ctx, actor.UserID)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccessToken extracts the bearer token from the Authorization header, falling
// back to the access token cookie.
func AccessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
