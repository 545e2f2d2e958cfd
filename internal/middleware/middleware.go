package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"channel-bridge-service/internal/auth"
)

const sessionKey = "session"

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Next()
	}
}

// CORS handles Cross-Origin Resource Sharing
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, o := range allowedOrigins {
			if o == "*" || o == origin || strings.HasSuffix(origin, strings.TrimPrefix(o, "https://*")) {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-User-ID")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SessionMiddleware extracts the user identity set by the gateway and stores
// an explicit session on the request context. No identity is not an error
// here; RequireUser gates the routes that need one.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = c.Query("userId")
		}
		if userID != "" {
			if id, err := uuid.Parse(userID); err == nil {
				c.Set(sessionKey, auth.UserSession(id))
			}
		}
		c.Next()
	}
}

// RequireUser aborts requests that carry no valid user identity
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(sessionKey); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid X-User-ID header"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession returns the session stored on the request context
func GetSession(c *gin.Context) auth.Session {
	if v, exists := c.Get(sessionKey); exists {
		if session, ok := v.(auth.Session); ok {
			return session
		}
	}
	return auth.Session{}
}
