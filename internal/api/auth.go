package api

import (
	"errors"                             // Error matching
	"net/http"                           // HTTP status codes
	"regexp"                             // Regular expressions
	"shaadi_planner/internal/domain"     // Importing domain models
	"shaadi_planner/internal/middleware" // Request identity
	"shaadi_planner/internal/utils"      // Utility functions
	"strings"                            // String manipulation
	"time"                               // Token lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// AuthRequest is the body of signup and login
type AuthRequest struct {
	Mobile   string `json:"mobile" binding:"required"`   // 10-digit mobile number
	Password string `json:"password" binding:"required"` // Plain password
}

// AuthUser is the public part of a user returned after authentication
type AuthUser struct {
	ID     uint   `json:"id"`     // User ID
	Mobile string `json:"mobile"` // Mobile number
}

// AuthResponse struct for authentication
type AuthResponse struct {
	Token string   `json:"token"` // JWT token
	User  AuthUser `json:"user"`  // Authenticated user
}

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`) // Indian mobile numbers

// isValidMobile checks for a 10-digit number starting with 6-9
func isValidMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}

// isValidPassword checks the minimum password length
func isValidPassword(password string) bool {
	return len(password) >= 6
}

// issueToken signs a JWT for user and writes the auth response
func issueToken(c *gin.Context, user domain.User, secret string, ttl time.Duration) {
	token, err := utils.GenerateJWT(user.ID, secret, ttl)
	if err != nil {
		// If token generation fails, return internal server error
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: AuthUser{ID: user.ID, Mobile: user.Mobile}})
}

// SignupHandler registers a new account and logs it in
func SignupHandler(db *gorm.DB, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AuthRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mobile and password are required."})
			return
		}
		mobile := strings.TrimSpace(req.Mobile) // Ignore surrounding whitespace
		// Validate mobile number
		if !isValidMobile(mobile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Indian mobile number. Please enter a 10-digit number starting with 6-9."})
			return
		}
		// Validate password length
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters long."})
			return
		}
		// Reject numbers that already have an account
		var existing int64
		if err := db.Model(&domain.User{}).Where("mobile = ?", mobile).Count(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
		if existing > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mobile number already registered."})
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{Mobile: mobile, Password: string(hash)}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with a concurrent signup
				c.JSON(http.StatusBadRequest, gin.H{"error": "Mobile number already registered."})
				return
			}
			logrus.WithFields(logrus.Fields{
				"mobile": mobile,      // Mobile number
				"error":  err.Error(), // Error message
			}).Error("Failed to create user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
		logrus.WithField("user_id", user.ID).Info("User registered") // Log signup
		issueToken(c, user, jwtSecret, ttl)
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AuthRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mobile and password are required."})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("mobile = ?", strings.TrimSpace(req.Mobile)).First(&user).Error; err != nil {
			// If user not found, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid mobile number or password."})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid mobile number or password."})
			return
		}
		issueToken(c, user, jwtSecret, ttl)
	}
}

// DownloadTokenHandler issues a single-use token for browser downloads
func DownloadTokenHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := utils.IssueDownloadToken(c.Request.Context(), rdb, middleware.UserID(c))
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to issue download token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue download token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(utils.DownloadTokenTTL.Seconds())})
	}
}
