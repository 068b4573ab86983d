package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS returns a middleware that sets CORS headers for cross-origin requests.
// allowedOrigins is "*" or a comma-separated list of origins.
func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := make(map[string]bool)
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allow := ""
		switch {
		case len(origins) == 0 || origins["*"]:
			allow = "*"
		case origin != "" && origins[origin]:
			allow = origin
		}
		if allow != "" {
			c.Header("Access-Control-Allow-Origin", allow)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
