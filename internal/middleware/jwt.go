package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/novameet/backend/internal/auth"
	"github.com/novameet/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserName is the key for the display name in gin context.
	ContextUserName = "user_name"
	// ContextIsHost is the key for the externally-resolved host flag.
	ContextIsHost = "is_host"
)

// JWT returns a middleware that validates the identity token and sets
// user claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserName, claims.Name)
		c.Set(ContextIsHost, claims.Host)
		c.Next()
	}
}
