package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys set by Authenticate
const (
	ClaimsKey   = "auth_claims"
	TenantIDKey = "auth_tenant_id"
	UserIDKey   = "auth_user_id"

	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// TokenValidator verifies a bearer token
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token and exposes its tenant and user to
// handlers. Every ledger route is tenant scoped, so there is no anonymous fallback.
func Authenticate(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader(authHeader)
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := validator.Validate(strings.TrimSpace(token))
		if err != nil {
			log.Debug("Bearer token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
			default:
				abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid token")
			}
			return
		}

		// Validate already rejected unparsable ids
		tenantID, _ := claims.TenantUUID()
		userID, _ := claims.UserUUID()

		c.Set(ClaimsKey, claims)
		c.Set(TenantIDKey, tenantID)
		c.Set(UserIDKey, userID)

		ctx := c.Request.Context()
		l := logger.FromContext(ctx)
		ctx, l = logger.WithTenantID(ctx, l, claims.TenantID)
		ctx, _ = logger.WithUserID(ctx, l, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequirePermission rejects callers whose token lacks permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !claims.HasPermission(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Missing permission "+permission, GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetClaims returns the verified claims, nil on unauthenticated routes
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetTenantID returns the authenticated tenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	return getUUID(c, TenantIDKey)
}

// GetUserID returns the authenticated user
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	return getUUID(c, UserIDKey)
}

func getUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	v, ok := c.Get(key)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
