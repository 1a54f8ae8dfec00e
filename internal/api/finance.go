package api

import (
	"net/http"                           // HTTP status codes
	"shaadi_planner/internal/domain"     // Importing domain models
	"shaadi_planner/internal/middleware" // Request identity
	"strings"                            // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// FinanceRequest records one expense
type FinanceRequest struct {
	Category    string  `json:"category"`    // Expense category
	Amount      float64 `json:"amount"`      // Amount spent
	Description string  `json:"description"` // Free text note
}

// CategoryTotal is the spend of one category
type CategoryTotal struct {
	Category string  `json:"category"` // Expense category
	Total    float64 `json:"total"`    // Sum of amounts
	Count    int64   `json:"count"`    // Number of expenses
}

// ListFinanceHandler returns expenses, newest first
func ListFinanceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		expenses := []domain.Finance{} // Encode as [] when empty
		if err := db.WithContext(c.Request.Context()).Where("user_id = ?", middleware.TenantID(c)).
			Order("created_at desc, id desc").Find(&expenses).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses"})
			return
		}
		c.JSON(http.StatusOK, expenses)
	}
}

// CreateFinanceHandler records an expense
func CreateFinanceHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FinanceRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		category := strings.TrimSpace(req.Category)
		if category == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category is required"})
			return
		}
		if req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be greater than 0"})
			return
		}
		expense := domain.Finance{
			UserID:      middleware.TenantID(c),             // Owning tenant
			Category:    category,                           // Expense category
			Amount:      req.Amount,                         // Amount spent
			Description: strings.TrimSpace(req.Description), // Note
		}
		if err := db.WithContext(c.Request.Context()).Create(&expense).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"tenant_id": expense.UserID, // Tenant ID
				"error":     err.Error(),    // Error message
			}).Error("Failed to record expense")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record expense"})
			return
		}
		invalidateStats(c.Request.Context(), rdb, expense.UserID)
		c.JSON(http.StatusCreated, expense)
	}
}

// DeleteFinanceHandler removes an expense
func DeleteFinanceHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		tenantID := middleware.TenantID(c)
		res := db.WithContext(c.Request.Context()).Where("user_id = ?", tenantID).Delete(&domain.Finance{}, id)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}
		invalidateStats(c.Request.Context(), rdb, tenantID)
		c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
	}
}

// FinanceSummaryHandler totals expenses per category, largest first
func FinanceSummaryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		byCategory := []CategoryTotal{}
		if err := db.WithContext(c.Request.Context()).Model(&domain.Finance{}).
			Select("category, SUM(amount) AS total, COUNT(*) AS count").
			Where("user_id = ?", middleware.TenantID(c)).
			Group("category").
			Order("total desc, category").
			Scan(&byCategory).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize expenses"})
			return
		}
		var total float64
		for _, ct := range byCategory {
			total += ct.Total
		}
		c.JSON(http.StatusOK, gin.H{"total": total, "byCategory": byCategory})
	}
}
