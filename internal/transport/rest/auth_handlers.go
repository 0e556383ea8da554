package rest

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"hr_project/internal/apperrors"
	"hr_project/internal/auth"
	"hr_project/internal/middleware"
	"hr_project/internal/repository"
	"hr_project/internal/utils"
	"hr_project/internal/utils/blacklist"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const invalidCredentials = "Incorrect email or password"

var (
	dummyHashOnce  sync.Once
	dummyHashValue string
)

// dummyHash keeps unknown-email logins as slow as wrong-password ones.
func dummyHash() string {
	dummyHashOnce.Do(func() {
		dummyHashValue, _ = utils.HashPassword(uuid.NewString())
	})
	return dummyHashValue
}

type AuthHandler struct {
	users        *repository.UserRepository
	tokens       *utils.TokenManager
	blacklist    blacklist.Blacklist
	cookieSecure bool
	now          func() time.Time
	log          *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email" form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
	IsAdmin     bool      `json:"is_admin"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// Login accepts an OAuth2 password form (username, password) or the JSON equivalent.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	var err error
	if c.ContentType() == gin.MIMEJSON {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		respondError(c, h.log, bindingError(err))
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(c, h.log, apperrors.Validation("username and password are required"))
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			_ = utils.VerifyPassword(dummyHash(), req.Password)
			respondError(c, h.log, apperrors.Unauthenticated(invalidCredentials))
			return
		}
		respondError(c, h.log, err)
		return
	}
	if utils.VerifyPassword(user.PasswordHash, req.Password) != nil || !user.IsActive {
		h.log.Info("Login rejected", zap.String("user_id", user.ID.String()))
		respondError(c, h.log, apperrors.Unauthenticated(invalidCredentials))
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		respondError(c, h.log, apperrors.Internal(err))
		return
	}
	if err := h.users.TouchLastLogin(c.Request.Context(), user.ID, h.now().UTC()); err != nil {
		h.log.Warn("Failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookieName, token, int(h.tokens.TTL().Seconds()), "/", "", h.cookieSecure, true)
	ok(c, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID,
		Role:        user.Role.String(),
		IsAdmin:     user.IsAdmin,
		ExpiresAt:   expiresAt,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if utils.VerifyPassword(user.PasswordHash, req.OldPassword) != nil {
		respondError(c, h.log, apperrors.Unauthenticated("Incorrect password"))
		return
	}
	if req.OldPassword == req.NewPassword {
		respondError(c, h.log, apperrors.Validation("new_password must differ from old_password"))
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		respondError(c, h.log, apperrors.Internal(err))
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), p.ID, hash); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Password changed", zap.String("user_id", p.ID.String()))
	respondDetail(c, http.StatusOK, "Password updated successfully")
}

// Logout revokes the presented token until its natural expiry and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := auth.RequireUser(p); err != nil {
		respondError(c, h.log, err)
		return
	}
	if p.TokenID != "" {
		ttl := p.TokenExpiry.Sub(h.now())
		if err := h.blacklist.Revoke(c.Request.Context(), p.TokenID, ttl); err != nil {
			respondError(c, h.log, apperrors.Internal(err))
			return
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", h.cookieSecure, true)
	respondDetail(c, http.StatusOK, "Logged out")
}
