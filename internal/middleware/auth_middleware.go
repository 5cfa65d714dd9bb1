package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/internal/utils"
)

// SessionCookie is the cookie holding the session JWT
const SessionCookie = "token"

const claimsKey = "claims"

var ErrUnauthenticated = errors.New("unauthenticated")

// AuthMiddleware accepts the session from the "token" cookie or from an
// "Authorization: Bearer" header.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Find the token
		tokenString := sessionToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Authentication required",
			})
			return
		}

		// 2. Validate token
		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid or expired token",
			})
			return
		}

		// 3. Add claims to context
		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Set(claimsKey, claims)

		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := CurrentUser(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Unauthorized",
			})
			return
		}

		if claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status": "error",
				"error":  "Admin access required",
			})
			return
		}

		c.Next()
	}
}

// CurrentUser returns the session claims stored by AuthMiddleware
func CurrentUser(c *gin.Context) (*utils.Claims, error) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, ErrUnauthenticated
	}
	claims, ok := value.(*utils.Claims)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
