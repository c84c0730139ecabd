package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/priyanshu-0212/my-agri-portal/internal/auth"
	"github.com/priyanshu-0212/my-agri-portal/internal/config"
	"github.com/priyanshu-0212/my-agri-portal/internal/models"
)

const (
	// ContextKeyActor holds the key for the authenticated actor in Gin context.
	ContextKeyActor = "actor"
	// ContextKeySessionClaims holds the parsed session claims (needed for logout).
	ContextKeySessionClaims = "sessionClaims"
)

// sessionToken extracts the session token from the request: the session
// cookie first, an Authorization Bearer header as fallback for API clients.
func sessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// AuthMiddleware creates a Gin middleware for session authentication. It
// validates the session token, rejects revoked sessions and stores the
// resulting actor in the request context. No handler reads identity from
// anywhere else.
func AuthMiddleware(cfg *config.Config, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c, cfg.SessionCookie)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := auth.ValidateSessionToken(tokenString, cfg.SessionSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		if err := auth.CheckRevoked(c.Request.Context(), rdb, claims); err != nil {
			if errors.Is(err, auth.ErrSessionRevoked) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session has been logged out"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify session"})
			return
		}

		actor, err := claims.Actor()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session subject"})
			return
		}

		c.Set(ContextKeyActor, actor)
		c.Set(ContextKeySessionClaims, claims)
		c.Next()
	}
}

// ActorFrom returns the actor placed in the context by AuthMiddleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(ContextKeyActor)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// ClaimsFrom returns the session claims placed in the context by AuthMiddleware.
func ClaimsFrom(c *gin.Context) (*auth.SessionClaims, bool) {
	v, exists := c.Get(ContextKeySessionClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.SessionClaims)
	return claims, ok
}

// RequireRole creates a middleware that rejects actors without the given
// role. Assumes AuthMiddleware runs first.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || actor.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// AdminMiddleware creates a Gin middleware to check for admin privileges.
// Assumes AuthMiddleware runs first.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Administrator privileges required"})
			return
		}
		c.Next()
	}
}
