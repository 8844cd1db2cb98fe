// api/middleware/auth_middleware.go
package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-studio/config"
	"github.com/Annany2002/nebula-studio/internal/auth"
)

// UserIDKey is the gin context key holding the requesting user's id.
const UserIDKey = "userId"

// AuthMiddleware requires a valid "Authorization: Bearer <jwt>" header and stores
// the token's user id under UserIDKey.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(fmt.Errorf("%w: authorization header required", auth.ErrUnauthorized))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = c.Error(fmt.Errorf("%w: authorization header format must be Bearer {token}", auth.ErrTokenMalformed))
			c.Abort()
			return
		}

		userID, err := auth.ValidateJWT(parts[1], cfg.JWTSecret)
		if err != nil {
			customLog.Printf("AuthMiddleware: Token validation failed: %v", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the requesting user set by AuthMiddleware, or "".
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
