package api

import (
	"errors"                             // Error matching
	"net/http"                           // HTTP status codes
	"shaadi_planner/internal/domain"     // Importing domain models
	"shaadi_planner/internal/middleware" // Request identity
	"shaadi_planner/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// SharedUser is the public view of a connected account
type SharedUser struct {
	Mobile string `json:"mobile"` // Mobile number
}

// ShareCodeResponse describes how the caller's account is shared
type ShareCodeResponse struct {
	ShareCode   *string      `json:"shareCode"`   // Code to hand out, null for linked users
	PrimaryUser *SharedUser  `json:"primaryUser"` // Account the caller joined, if any
	SharedUsers []SharedUser `json:"sharedUsers"` // Accounts that joined the caller
	IsReadOnly  bool         `json:"isReadOnly"`  // Caller only views data
}

// JoinRequest connects to another wedding, or disconnects when the code is empty or null
type JoinRequest struct {
	ShareCode optionalString `json:"shareCode"` // Code of the wedding to join
}

const shareCodeAttempts = 5 // Retries on the unlikely code collision

// ensureShareCode assigns a share code to user on first use
func ensureShareCode(db *gorm.DB, user *domain.User) error {
	if user.ShareCode != nil && *user.ShareCode != "" {
		return nil
	}
	var err error
	for range shareCodeAttempts {
		code := utils.NewShareCode()
		err = db.Model(user).Update("share_code", code).Error
		if err == nil {
			user.ShareCode = &code
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

// sharedUsers lists accounts linked to primaryID
func sharedUsers(db *gorm.DB, primaryID uint) ([]SharedUser, error) {
	var users []domain.User
	if err := db.Where("linked_to_id = ?", primaryID).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	out := make([]SharedUser, len(users))
	for i, u := range users {
		out[i] = SharedUser{Mobile: u.Mobile}
	}
	return out, nil
}

// ShareCodeHandler returns the caller's share code and connected accounts
func ShareCodeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := db.WithContext(c.Request.Context()) // Request scoped queries
		var user domain.User                      // Fetch caller
		if err := db.First(&user, middleware.UserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Linked users see who they joined and cannot share further
		if user.IsReadOnly() {
			var primary domain.User
			resp := ShareCodeResponse{SharedUsers: []SharedUser{}, IsReadOnly: true}
			if err := db.First(&primary, *user.LinkedToID).Error; err == nil {
				resp.PrimaryUser = &SharedUser{Mobile: primary.Mobile}
			}
			c.JSON(http.StatusOK, resp)
			return
		}
		// Primary accounts get a code generated on first request
		if err := ensureShareCode(db, &user); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to generate share code")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate share code"})
			return
		}
		shared, err := sharedUsers(db, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load shared users"})
			return
		}
		c.JSON(http.StatusOK, ShareCodeResponse{ShareCode: user.ShareCode, SharedUsers: shared})
	}
}

// JoinHandler links the caller to the wedding owning a share code, or unlinks it
func JoinHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := db.WithContext(ctx)
		var req JoinRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // Fetch caller
		if err := db.First(&user, middleware.UserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		code := utils.NormalizeShareCode(req.ShareCode.Value)
		// An empty or null code disconnects
		if code == "" {
			if err := db.Model(&user).Update("linked_to_id", nil).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect"})
				return
			}
			logrus.WithField("user_id", user.ID).Info("User disconnected from shared wedding")
			c.JSON(http.StatusOK, gin.H{"message": "Disconnected. You are now viewing your own data.", "isReadOnly": false})
			return
		}

		var target domain.User // Owner of the code
		if err := db.Where("share_code = ?", code).First(&target).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid share code"})
			return
		}
		primaryID := target.TenantID() // Join the wedding the code's holder works on
		if primaryID == user.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot join your own wedding"})
			return
		}
		// Chains are not allowed: accounts others joined stay primary
		var linked int64
		if err := db.Model(&domain.User{}).Where("linked_to_id = ?", user.ID).Count(&linked).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join"})
			return
		}
		if linked > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Other accounts are connected to you. They must disconnect before you can join another wedding."})
			return
		}
		var primary domain.User
		if err := db.First(&primary, primaryID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid share code"})
			return
		}
		if err := db.Model(&user).Update("linked_to_id", primaryID).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    user.ID,     // Joining user
				"primary_id": primaryID,   // Joined wedding
				"error":      err.Error(), // Error message
			}).Error("Failed to join wedding")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join"})
			return
		}
		invalidateStats(ctx, rdb, user.ID) // Drop the caller's own snapshot
		logrus.WithFields(logrus.Fields{
			"user_id":    user.ID,   // Joining user
			"primary_id": primaryID, // Joined wedding
		}).Info("User joined shared wedding")
		c.JSON(http.StatusOK, gin.H{
			"message":     "Joined successfully. You now have read-only access.",
			"primaryUser": SharedUser{Mobile: primary.Mobile},
			"isReadOnly":  true,
		})
	}
}
