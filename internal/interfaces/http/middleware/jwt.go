package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/gatepass/backend/internal/infrastructure/auth"
	"github.com/gatepass/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey    = "jwt_claims"
	JWTServiceNoKey = "jwt_service_no"
	SessionUserKey  = "session_user"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Optional callback if token is invalid (default: return 401)
	OnError func(c *gin.Context, err error)
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
			"/api/v1/health",
		},
		SkipPathPrefixes: []string{},
		OnError:          nil,
		Logger:           nil,
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.Validate(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		// Materialize the session user for downstream handlers and carry
		// the service number into the request context for log enrichment.
		user := claims.SessionUser()
		c.Set(JWTClaimsKey, claims)
		c.Set(JWTServiceNoKey, claims.ServiceNo)
		c.Set(SessionUserKey, user)

		ctx := context.WithValue(c.Request.Context(), logger.ServiceNoKey, claims.ServiceNo)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// handleAuthError responds to a failed authentication attempt
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Debug("Authentication failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("reason", message),
			zap.Error(err))
	}

	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	code := "ERR_TOKEN_INVALID"
	if errors.Is(err, auth.ErrExpiredToken) {
		code = "ERR_TOKEN_EXPIRED"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// GetJWTClaims retrieves the validated claims from the gin context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTServiceNo retrieves the authenticated service number, or ""
func GetJWTServiceNo(c *gin.Context) string {
	if v, exists := c.Get(JWTServiceNoKey); exists {
		if serviceNo, ok := v.(string); ok {
			return serviceNo
		}
	}
	return ""
}

// GetSessionUser retrieves the authenticated session user. The bool is
// false when the request was not authenticated.
func GetSessionUser(c *gin.Context) (identity.SessionUser, bool) {
	if v, exists := c.Get(SessionUserKey); exists {
		if user, ok := v.(identity.SessionUser); ok {
			return user, true
		}
	}
	return identity.SessionUser{}, false
}
