package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
)

// RefreshTokenCookie names the cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// AuthHandler implements registration and session endpoints.
type AuthHandler struct {
	Users        UserStore
	Sessions     SessionManager
	Media        MediaUploader
	CookieSecure bool
	NowFunc      func() time.Time
}

// Register handles POST /api/v1/users/register multipart requests.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		response.Error(ctx, w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	if !parseForm(w, r) {
		return
	}

	fullName, _ := formValue(r, "fullName")
	email, _ := formValue(r, "email")
	username, _ := formValue(r, "username")
	password, _ := formValue(r, "password")
	email = strings.ToLower(email)
	username = strings.ToLower(username)

	var problems []string
	if fullName == "" || email == "" || username == "" || password == "" {
		problems = append(problems, "fullName, email, username and password are required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			problems = append(problems, "invalid email address")
		}
	}
	if password != "" && len(password) < auth.MinPasswordLength {
		problems = append(problems, "password must be at least 8 characters")
	}
	if len(problems) > 0 {
		logger.Warn("register validation failed", "email", email, "username", username)
		response.Error(ctx, w, http.StatusBadRequest, "invalid registration request", problems...)
		return
	}
	if !hasFormFile(r, "avatar") {
		response.Error(ctx, w, http.StatusBadRequest, "avatar file is required")
		return
	}

	taken, err := h.Users.Exists(ctx, username, email)
	if err != nil {
		storeError(ctx, w, err, "user")
		return
	}
	if taken {
		logger.Warn("register existing account", "email", email, "username", username)
		response.Error(ctx, w, http.StatusConflict, "user with email or username already exists")
		return
	}

	avatar, err := uploadFormFile(r, h.Media, "avatar", media.KindAvatar)
	if err != nil {
		uploadError(ctx, w, err, "avatar")
		return
	}

	var cover models.MediaAsset
	if hasFormFile(r, "coverImage") {
		cover, err = uploadFormFile(r, h.Media, "coverImage", media.KindCover)
		if err != nil {
			h.Media.Discard(ctx, avatar)
			uploadError(ctx, w, err, "cover image")
			return
		}
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		h.Media.Discard(ctx, avatar, cover)
		logger.Error("register failed to hash password", "error", err)
		response.Error(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatar.URL,
		CoverImage: cover.URL,
		Password:   hashed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.Media.Discard(ctx, avatar, cover)
		if errors.Is(err, repositories.ErrConflict) {
			response.Error(ctx, w, http.StatusConflict, "user with email or username already exists")
			return
		}
		storeError(ctx, w, err, "user")
		return
	}

	logger.Info("user registered", "userId", user.ID)
	response.JSON(ctx, w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /api/v1/users/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		response.Error(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identifier := strings.ToLower(strings.TrimSpace(req.Email))
	if identifier == "" {
		identifier = strings.ToLower(strings.TrimSpace(req.Username))
	}
	if identifier == "" || req.Password == "" {
		response.Error(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	user, err := h.Users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			response.Error(ctx, w, http.StatusNotFound, "user does not exist")
			return
		}
		storeError(ctx, w, err, "user")
		return
	}

	if err := auth.ComparePassword(user.Password, req.Password); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		response.Error(ctx, w, http.StatusUnauthorized, "invalid user credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		response.Error(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setSessionCookies(w, tokens)
	response.JSON(ctx, w, http.StatusOK, authResponse{User: &user, SessionTokens: tokens}, "user logged in successfully")
}

// Logout ends the session family of the presented access token.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := h.Sessions.Revoke(ctx, actor.SessionID); err != nil {
		logging.FromContext(ctx).Error("logout failed", "error", err, "sessionId", actor.SessionID)
		response.Error(ctx, w, http.StatusInternalServerError, "failed to end session")
		return
	}

	h.clearSessionCookies(w)
	response.JSON(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// LogoutAll ends every session family of the authenticated user.
func (h AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := h.Sessions.RevokeAll(ctx, actor.UserID); err != nil {
		logging.FromContext(ctx).Error("logout all failed", "error", err, "userId", actor.UserID)
		response.Error(ctx, w, http.StatusInternalServerError, "failed to end sessions")
		return
	}

	h.clearSessionCookies(w)
	response.JSON(ctx, w, http.StatusOK, struct{}{}, "all sessions ended")
}

// Refresh exchanges a refresh token, from the cookie or the JSON body, for a new pair.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		response.Error(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	var token string
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" && r.ContentLength != 0 {
		var req refreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		response.Error(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshTokenReused):
			logger.Warn("refresh token reuse detected, session revoked")
			h.clearSessionCookies(w)
			response.Error(ctx, w, http.StatusUnauthorized, "refresh token has been used")
		case errors.Is(err, auth.ErrRefreshTokenExpired):
			h.clearSessionCookies(w)
			response.Error(ctx, w, http.StatusUnauthorized, "refresh token is expired")
		case errors.Is(err, auth.ErrSessionNotFound):
			response.Error(ctx, w, http.StatusUnauthorized, "invalid refresh token")
		default:
			logger.Error("refresh failed", "error", err)
			response.Error(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		}
		return
	}

	h.setSessionCookies(w, tokens)
	response.JSON(ctx, w, http.StatusOK, authResponse{SessionTokens: tokens}, "access token refreshed")
}

// ChangePassword verifies the old password and stores a new hash.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		response.Error(ctx, w, http.StatusBadRequest, "old and new password are required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		response.Error(ctx, w, http.StatusBadRequest, "new password and confirmation do not match")
		return
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		response.Error(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := h.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		storeError(ctx, w, err, "user")
		return
	}
	if err := auth.ComparePassword(user.Password, req.OldPassword); err != nil {
		response.Error(ctx, w, http.StatusUnauthorized, "invalid old password")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logging.FromContext(ctx).Error("change password failed to hash", "error", err)
		response.Error(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	if err := h.Users.UpdatePassword(ctx, actor.UserID, hashed); err != nil {
		storeError(ctx, w, err, "user")
		return
	}

	response.JSON(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

func (h AuthHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		c := h.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type authResponse struct {
	User *models.User `json:"user,omitempty"`
	models.SessionTokens
}
