package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/infrastructure/auth"
	"github.com/coltrade/backend/internal/infrastructure/logger"
)

// Session cookie names and context keys
const (
	AccessCookieName  = "access_token_cookie"
	RefreshCookieName = "refresh_token_cookie"
	RefreshCookiePath = "/api/refresh"

	JWTClaimsKey   = "jwt_claims"
	JWTUsernameKey = "username"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// Blocklist is checked for revoked token ids when set
	Blocklist auth.TokenBlocklist
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService, blocklist auth.TokenBlocklist) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		Blocklist:  blocklist,
		SkipPaths:  []string{"/health", "/api/login", "/api/refresh"},
	}
}

// JWTAuthMiddleware authenticates requests with the access cookie, or a
// bearer token when no cookie is sent. Failures answer {"msg": ...}.
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		token := accessToken(c)
		if token == "" {
			abortAuth(c, cfg, http.StatusUnauthorized, `Missing cookie "`+AccessCookieName+`"`, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortAuth(c, cfg, http.StatusUnauthorized, "Token expirado", err)
				return
			}
			abortAuth(c, cfg, http.StatusUnprocessableEntity, "Invalid token: "+err.Error(), err)
			return
		}

		if cfg.Blocklist != nil && claims.ID != "" {
			revoked, err := cfg.Blocklist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Fail open: an unreachable blocklist must not lock everyone out.
				if cfg.Logger != nil {
					cfg.Logger.Error("Failed to check token blocklist", zap.String("jti", claims.ID), zap.Error(err))
				}
			} else if revoked {
				abortAuth(c, cfg, http.StatusUnauthorized, "Token revocado", auth.ErrTokenRevoked)
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUsernameKey, claims.Subject)

		ctx := c.Request.Context()
		ctx, _ = logger.WithUser(ctx, logger.FromContext(ctx), claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader(AuthHeaderKey)
	if strings.HasPrefix(header, BearerPrefix) {
		return strings.TrimPrefix(header, BearerPrefix)
	}
	return ""
}

func abortAuth(c *gin.Context, cfg JWTMiddlewareConfig, status int, msg string, err error) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path))
	}
	c.AbortWithStatusJSON(status, gin.H{"msg": msg})
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUsername retrieves the token subject from context
func GetJWTUsername(c *gin.Context) string {
	return c.GetString(JWTUsernameKey)
}
