package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/service"
)

const actorKey = "actor"

// RequireAuth rejects requests without a valid bearer access token and stores
// the authenticated Actor in the request context.
func RequireAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromHeader(c, authService)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth resolves the Actor when a valid token is presented but lets
// unauthenticated requests through as anonymous. Used on read endpoints.
func OptionalAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := actorFromHeader(c, authService); ok {
			c.Set(actorKey, actor)
		}
		c.Next()
	}
}

func actorFromHeader(c *gin.Context, authService service.AuthService) (permissions.Actor, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return permissions.Anonymous(), false
	}

	// format: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return permissions.Anonymous(), false
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		return permissions.Anonymous(), false
	}

	return permissions.Actor{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, true
}

// ActorFromContext returns the Actor stored by the auth middleware, or the
// anonymous actor when the request carried no valid token.
func ActorFromContext(c *gin.Context) permissions.Actor {
	if v, exists := c.Get(actorKey); exists {
		if actor, ok := v.(permissions.Actor); ok {
			return actor
		}
	}
	return permissions.Anonymous()
}
