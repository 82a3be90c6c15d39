package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/campushub/campusevents/internal/config"
	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/campushub/campusevents/internal/http/middlewares"
	"github.com/campushub/campusevents/internal/jobs"
	"github.com/campushub/campusevents/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UsersStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (user.User, error)
	ClaimVerificationCode(ctx context.Context, code string, now time.Time) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID, role string) (string, time.Time, error)
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, t jobs.JobType, payload any) error
}

type AuthHandler struct {
	users    UsersStore
	jwt      TokenIssuer
	enqueuer JobEnqueuer
	cfg      config.Config
}

func NewAuthHandler(users UsersStore, jwt TokenIssuer, enqueuer JobEnqueuer, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:    users,
		jwt:      jwt,
		enqueuer: enqueuer,
		cfg:      cfg,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=80"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=student faculty"`
}

type SignInRequest struct {
	// email or display name
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	code, err := security.NewVerificationCode()

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	now := time.Now().UTC()
	expiresAt := now.Add(security.VerificationCodeTTL)

	u, err := h.users.Create(cctx, user.User{
		ID:                        uuid.NewString(),
		Email:                     req.Email,
		Name:                      req.Name,
		PasswordHash:              hash,
		Role:                      req.Role,
		VerificationCode:          &code,
		VerificationCodeExpiresAt: &expiresAt,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			// duplicate email is a plain 400 on this surface, same as the
			// other registration input failures
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	token, expiry, err := h.jwt.Issue(u.ID, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, token, expiry)

	// delivery is async; a queue hiccup must not fail the registration
	err = h.enqueuer.Enqueue(cctx, jobs.JobSendVerificationCode, jobs.SendVerificationCodePayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Code:   code,
	})

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(),
			"enqueue verification email", "user_id", u.ID, "error", err)
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registered. Check your email for the verification code.",
		"user":    u.Public(),
		"token":   token,
	})
}

func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	var req VerifyEmailRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.users.ClaimVerificationCode(cctx, req.Code, time.Now().UTC())

	if err != nil {
		if errors.Is(err, user.ErrCodeInvalid) {
			RespondError(ctx, http.StatusBadRequest, "invalid_or_expired_code",
				"Verification code is invalid or has expired.", nil)
			return
		}

		RespondInternal(ctx, "Could not verify email")
		return
	}

	err = h.enqueuer.Enqueue(cctx, jobs.JobSendWelcome, jobs.SendWelcomePayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
	})

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(),
			"enqueue welcome email", "user_id", u.ID, "error", err)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email verified successfully.",
		"user":    u.Public(),
	})
}

func (h *AuthHandler) SignIn(ctx *gin.Context) {
	var req SignInRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	foundUser, err := h.users.GetByIdentifier(cctx, req.Identifier)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondError(ctx, http.StatusBadRequest, "user_not_found",
				"No account matches that email or name.", nil)
			return
		}

		RespondInternal(ctx, "Could not sign in")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_credentials",
			"Password is incorrect.", nil)
		return
	}

	// unverified accounts may sign in; verification only gates event writes

	token, expiry, err := h.jwt.Issue(foundUser.ID, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, token, expiry)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Signed in successfully.",
		"user":    foundUser.Public(),
		"token":   token,
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	ctx.SetSameSite(h.cookieSameSite())
	ctx.SetCookie(middlewares.SessionCookieName, "", -1, "/", "", h.cookieSecure(), true)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out.",
	})
}

func (h *AuthHandler) GetUser(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User no longer exists.")
			return
		}

		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u.Public(),
	})
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(h.cookieSameSite())
	ctx.SetCookie(middlewares.SessionCookieName, token, maxAge, "/", "", h.cookieSecure(), true)
}

func (h *AuthHandler) cookieSecure() bool {
	return h.cfg.Env == "prod"
}

func (h *AuthHandler) cookieSameSite() http.SameSite {
	if h.cfg.Env == "dev" {
		return http.SameSiteLaxMode
	}
	return http.SameSiteStrictMode
}
