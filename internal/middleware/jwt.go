package middleware

import (
	"net/http"                      // HTTP status codes
	"shaadi_planner/internal/utils" // JWT utility functions
	"strings"                       // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Context keys set by the auth middlewares
const (
	UserIDKey   = "userID"   // Authenticated account
	TenantIDKey = "tenantID" // Account whose data is being accessed
	ReadOnlyKey = "readOnly" // Whether writes are forbidden
)

// bearerToken extracts the JWT from the Authorization header or the token query parameter
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token") // Browser downloads pass the token in the URL
}

// JWTAuthMiddleware validates JWT tokens and extracts user information
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		// Check if a token was supplied at all
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid token"})
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Next()                        // Proceed to the next handler
	}
}

// DownloadAuthMiddleware accepts a JWT like JWTAuthMiddleware, or a single-use
// download token passed as ?dl=
func DownloadAuthMiddleware(secret string, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dl := c.Query("dl"); dl != "" {
			userID, err := utils.ConsumeDownloadToken(c.Request.Context(), rdb, dl)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid download token"})
				return
			}
			c.Set(UserIDKey, userID) // Store userID in context
			c.Next()
			return
		}
		JWTAuthMiddleware(secret)(c)
	}
}
