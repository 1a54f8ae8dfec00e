package middleware

import (
	"net/http"                       // HTTP status codes
	"shaadi_planner/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// TenantMiddleware loads the user on each request and resolves whose wedding
// data it works on. It must run after JWTAuthMiddleware.
func TenantMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Get userID from context
		// Check if userID exists in context
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			// Deleted accounts keep valid tokens until expiry
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Unknown user"})
			return
		}
		c.Set(TenantIDKey, user.TenantID())   // Data scope
		c.Set(ReadOnlyKey, user.IsReadOnly()) // Linked accounts only view
		c.Next()
	}
}

// ReadOnlyGuard rejects state-changing requests from read-only users
func ReadOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if c.GetBool(ReadOnlyKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Read-only access: ask the wedding owner to make changes"})
			return
		}
		c.Next()
	}
}

// TenantID returns the tenant resolved by TenantMiddleware
func TenantID(c *gin.Context) uint {
	v, _ := c.Get(TenantIDKey)
	id, _ := v.(uint)
	return id
}

// UserID returns the authenticated user
func UserID(c *gin.Context) uint {
	v, _ := c.Get(UserIDKey)
	id, _ := v.(uint)
	return id
}
