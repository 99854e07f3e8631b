package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/config"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/queue"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/utils"
)

// UserStore is the slice of persistence the auth endpoints need. Satisfied
// by repository.UserRepo; tests substitute an in-memory fake.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, email, username, passwordHash, avatar string) (uint64, error)
	UpdateRefreshToken(ctx context.Context, userID uint64, tokenHash string) error
	ConfirmEmail(ctx context.Context, userID uint64) error
	UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error
}

// MailPublisher hands a mail event to the outbound queue. Satisfied by
// service.MailPublisher.
type MailPublisher interface {
	PublishMailRequested(ctx context.Context, event queue.MailRequestedEvent) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
	Mail  MailPublisher
}

func NewAuthHandler(cfg config.Config, users UserStore, mail MailPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Mail: mail}
}

// ----- DTOs -----

type signupReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type emailReq struct {
	Email string `json:"email"`
}
type changePasswordReq struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type userResp struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar,omitempty"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}
type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Signup creates an unconfirmed account and schedules the confirmation mail.
// The mail is fire-and-forget: a broker outage is logged and swallowed, the
// account is created either way.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/username/password required"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Username, hash, utils.GravatarURL(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "account already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	h.scheduleMail(queue.MailKindConfirm, req.Email, req.Username)

	return c.JSON(http.StatusCreated, userResp{
		ID:        uid,
		Email:     req.Email,
		Username:  req.Username,
		Avatar:    utils.GravatarURL(req.Email),
		Confirmed: false,
		CreatedAt: time.Now().UTC(),
	})
}

// Login verifies credentials against a confirmed account and returns a fresh
// access/refresh pair. All failure modes produce the same 401 body; the
// distinct reasons are only logged.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.Confirmed {
		log.Printf("auth: login rejected for unconfirmed account %s", u.Email)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	pair, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh exchanges a valid refresh token (Bearer header) for a new token
// pair. The presented token must match the digest stored on the account row
// exactly; a mismatch clears the stored value so the session cannot be
// refreshed again. On success the stored digest is overwritten, making the
// old refresh token single-use.
func (h *AuthHandler) Refresh(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	email, err := utils.ParseToken(h.Cfg.JWTSecret, raw, utils.PurposeRefresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.RefreshTokenHash == "" || u.RefreshTokenHash != utils.HashRefreshRaw(raw) {
		// Presented token no longer matches the stored one; revoke what is
		// stored so a stolen older token can't be retried either.
		if err := h.Users.UpdateRefreshToken(ctx, u.ID, ""); err != nil {
			log.Printf("auth: clear refresh token for %s failed: %v", u.Email, err)
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	pair, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// ConfirmEmail flips the confirmed flag for the account named by a valid
// email-verification token. Idempotent: a re-clicked link answers 200.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	email, err := utils.ParseToken(h.Cfg.JWTSecret, c.Param("token"), utils.PurposeEmailVerify)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification error"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification error"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Confirmed {
		return c.JSON(http.StatusOK, echo.Map{"message": "email already confirmed"})
	}
	if err := h.Users.ConfirmEmail(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email confirmed"})
}

// RequestEmail re-sends the confirmation mail. The response is the same
// generic acknowledgment whether the account exists, is already confirmed,
// or was never registered, so the endpoint can't be used to probe for
// accounts.
func (h *AuthHandler) RequestEmail(c echo.Context) error {
	const ack = "check your email for confirmation"

	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("auth: request_email lookup failed: %v", err)
		}
		return c.JSON(http.StatusOK, echo.Map{"message": ack})
	}
	if !u.Confirmed {
		h.scheduleMail(queue.MailKindConfirm, u.Email, u.Username)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": ack})
}

// ResetPassword schedules a password-reset mail. Like RequestEmail, the
// acknowledgment is identical for known and unknown addresses.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	const ack = "check your email for password reset"

	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("auth: reset_password lookup failed: %v", err)
		}
		return c.JSON(http.StatusOK, echo.Map{"message": ack})
	}
	h.scheduleMail(queue.MailKindReset, u.Email, u.Username)
	return c.JSON(http.StatusOK, echo.Map{"message": ack})
}

// ChangePassword sets a new password for the account named by a valid
// password-reset token. Confirmation tokens are rejected here; the purposes
// are deliberately distinct.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	email, err := utils.ParseToken(h.Cfg.JWTSecret, c.Param("token"), utils.PurposePasswordReset)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password change error"})
	}

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}
	if req.Password != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "different passwords"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password change error"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// issuePair mints an access/refresh pair for the user and stores the digest
// of the new refresh token on the account row. Concurrent logins race on
// that single column; the last writer wins and earlier refresh tokens stop
// matching, which is the intended server-side revocation mechanism.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (tokenResp, error) {
	access, _, err := utils.NewToken(h.Cfg.JWTSecret, u.Email, utils.PurposeAccess,
		time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return tokenResp{}, err
	}
	refresh, _, err := utils.NewToken(h.Cfg.JWTSecret, u.Email, utils.PurposeRefresh,
		time.Duration(h.Cfg.RefreshTTLDays)*24*time.Hour)
	if err != nil {
		return tokenResp{}, err
	}
	if err := h.Users.UpdateRefreshToken(ctx, u.ID, utils.HashRefreshRaw(refresh)); err != nil {
		return tokenResp{}, err
	}
	return tokenResp{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// scheduleMail publishes a mail event in the background. The triggering
// request never waits on the broker and never fails because of it.
func (h *AuthHandler) scheduleMail(kind, to, username string) {
	var (
		purpose utils.Purpose
		ttl     time.Duration
		path    string
	)
	switch kind {
	case queue.MailKindReset:
		purpose = utils.PurposePasswordReset
		ttl = time.Duration(h.Cfg.ResetTTLHours) * time.Hour
		path = "/v1/auth/change_password/"
	default:
		purpose = utils.PurposeEmailVerify
		ttl = time.Duration(h.Cfg.VerifyTTLHours) * time.Hour
		path = "/v1/auth/confirmed_email/"
	}
	token, _, err := utils.NewToken(h.Cfg.JWTSecret, to, purpose, ttl)
	if err != nil {
		log.Printf("auth: mint %s token for %s failed: %v", kind, to, err)
		return
	}
	ev := queue.MailRequestedEvent{
		Kind:        kind,
		To:          to,
		Username:    username,
		Link:        strings.TrimRight(h.Cfg.BaseURL, "/") + path + token,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Mail.PublishMailRequested(ctx, ev); err != nil {
			log.Printf("auth: publish %s mail for %s failed: %v", kind, to, err)
		}
	}()
}
