package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"hr_project/internal/apperrors"
	"hr_project/internal/auth"
	"hr_project/internal/domain"
	"hr_project/internal/utils"
	"hr_project/internal/utils/blacklist"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	APIKeyHeader     = "X-API-Key"
	AuthCookieName   = "Authorization"
	credentialsError = "Could not validate credentials"
	principalCtxKey  = "principal"
)

type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Authenticator resolves the caller of every protected request.
type Authenticator struct {
	tokens    *utils.TokenManager
	users     UserLookup
	blacklist blacklist.Blacklist
	apiKey    string
	log       *zap.Logger
}

func NewAuthenticator(tokens *utils.TokenManager, users UserLookup, bl blacklist.Blacklist, apiKey string, log *zap.Logger) *Authenticator {
	if bl == nil {
		bl = blacklist.Noop{}
	}
	return &Authenticator{tokens: tokens, users: users, blacklist: bl, apiKey: apiKey, log: log}
}

// Authenticate accepts the system API key or a bearer token of an existing active user.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(APIKeyHeader); key != "" {
			if a.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) != 1 {
				unauthorized(c)
				return
			}
			setPrincipal(c, auth.SystemPrincipal())
			c.Next()
			return
		}

		p, err := a.resolve(c)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindInternal {
				a.log.Error("Failed to resolve principal", zap.Error(err))
				abortWithError(c, err)
				return
			}
			unauthorized(c)
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

func (a *Authenticator) resolve(c *gin.Context) (*auth.Principal, error) {
	cookie, _ := c.Cookie(AuthCookieName)
	tokenString, ok := utils.ExtractToken(c.GetHeader("Authorization"), cookie)
	if !ok {
		return nil, apperrors.Unauthenticated(credentialsError)
	}
	claims, err := a.tokens.Parse(tokenString)
	if err != nil {
		return nil, apperrors.Unauthenticated(credentialsError)
	}
	if claims.ID != "" {
		revoked, err := a.blacklist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if revoked {
			return nil, apperrors.Unauthenticated(credentialsError)
		}
	}

	userID, _ := claims.UserID()
	user, err := a.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.Unauthenticated(credentialsError)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated(credentialsError)
	}

	p := auth.FromUser(user)
	p.TokenID = claims.ID
	p.TokenExpiry = claims.ExpiresAt.Time
	return p, nil
}

func setPrincipal(c *gin.Context, p *auth.Principal) {
	c.Set(principalCtxKey, p)
	c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
}

// CurrentPrincipal returns the caller stored by Authenticate.
func CurrentPrincipal(c *gin.Context) *auth.Principal {
	if v, ok := c.Get(principalCtxKey); ok {
		if p, ok := v.(*auth.Principal); ok {
			return p
		}
	}
	p, _ := auth.PrincipalFromContext(c.Request.Context())
	return p
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": credentialsError})
}

func abortWithError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindUnauthenticated {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(apperrors.HTTPStatus(kind), gin.H{"detail": apperrors.PublicMessage(err)})
}
