package middleware

import (
	"net/http"
	"strings"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/storage"

	"github.com/gin-gonic/gin"
)

const userContextKey = "auth_user"

// Auth validates the Bearer session token against the sessions table
// and attaches the authenticated user to the request context. The core
// never sees a request without an already-resolved acting identity.
func Auth(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Access token required",
				"message": "Please provide a Bearer token in Authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token",
				"message": "Authorization header must be: Bearer <token>",
			})
			return
		}

		sess, err := store.GetLiveSession(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Authentication failed",
				"message": "Internal server error during authentication",
			})
			return
		}
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid or expired session",
				"message": "Please login again",
			})
			return
		}

		user, err := store.GetUserByID(c.Request.Context(), sess.UserID)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "User not found",
				"message": "User account no longer exists",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by Auth, or nil on routes that
// skipped authentication.
func CurrentUser(c *gin.Context) *model.User {
	val, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := val.(*model.User)
	return user
}
