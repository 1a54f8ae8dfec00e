package api

import (
	"errors"                             // Error matching
	"net/http"                           // HTTP status codes
	"shaadi_planner/internal/domain"     // Importing domain models
	"shaadi_planner/internal/importer"   // Spreadsheet import
	"shaadi_planner/internal/metrics"    // Prometheus collectors
	"shaadi_planner/internal/middleware" // Request identity
	"shaadi_planner/internal/utils"      // Utility functions
	"strings"                            // String manipulation
	"time"                               // Date sanitization

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// GuestRequest holds the guest fields a client may set. Pointer fields
// left nil keep their current value on update.
type GuestRequest struct {
	Name              *string        `json:"name"`              // Guest name
	Mobile            *string        `json:"mobile"`            // Mobile number
	Gender            *string        `json:"gender"`            // Free text, normalized
	Side              *string        `json:"side"`              // Bride or groom side
	IsTentative       *bool          `json:"isTentative"`       // Attendance not confirmed
	ArrivalTime       optionalString `json:"arrivalTime"`       // Arrival date and time
	ArrivalFlightNo   *string        `json:"arrivalFlightNo"`   // Arrival flight/train number
	ArrivalPnr        *string        `json:"arrivalPnr"`        // Arrival booking reference
	DepartureTime     optionalString `json:"departureTime"`     // Departure date and time
	DepartureFlightNo *string        `json:"departureFlightNo"` // Departure flight/train number
	DeparturePnr      *string        `json:"departurePnr"`      // Departure booking reference
	IsNotified        *bool          `json:"isNotified"`        // Notification already sent
}

// apply copies the present fields onto g. Empty or unparseable dates clear the field.
func (r GuestRequest) apply(g *domain.Guest, loc *time.Location) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&g.Name, r.Name)
	setString(&g.Mobile, r.Mobile)
	setString(&g.Side, r.Side)
	setString(&g.ArrivalFlightNo, r.ArrivalFlightNo)
	setString(&g.ArrivalPnr, r.ArrivalPnr)
	setString(&g.DepartureFlightNo, r.DepartureFlightNo)
	setString(&g.DeparturePnr, r.DeparturePnr)
	if r.Gender != nil {
		g.Gender = domain.NormalizeGender(*r.Gender)
	}
	if r.IsTentative != nil {
		g.IsTentative = *r.IsTentative
	}
	if r.IsNotified != nil {
		g.IsNotified = *r.IsNotified
	}
	if r.ArrivalTime.Set {
		g.ArrivalTime = utils.ParseOptionalTime(r.ArrivalTime.Value, loc)
	}
	if r.DepartureTime.Set {
		g.DepartureTime = utils.ParseOptionalTime(r.DepartureTime.Value, loc)
	}
}

// tenantGuests scopes guest queries to the caller's wedding
func tenantGuests(db *gorm.DB, c *gin.Context) *gorm.DB {
	return db.WithContext(c.Request.Context()).Where("user_id = ?", middleware.TenantID(c))
}

// ListGuestsHandler returns every guest with its room, newest first
func ListGuestsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		guests := []domain.Guest{} // Encode as [] when empty
		if err := tenantGuests(db, c).Preload("Room").Order("created_at desc, id desc").Find(&guests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guests"})
			return
		}
		c.JSON(http.StatusOK, guests)
	}
}

// UnnotifiedGuestsHandler returns guests with a room who were not told yet
func UnnotifiedGuestsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		guests := []domain.Guest{}
		if err := tenantGuests(db, c).Preload("Room").
			Where("room_id IS NOT NULL AND is_notified = ?", false).
			Order("name").Find(&guests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guests"})
			return
		}
		c.JSON(http.StatusOK, guests)
	}
}

// CreateGuestHandler adds one guest
func CreateGuestHandler(db *gorm.DB, rdb *redis.Client, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GuestRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		guest := domain.Guest{UserID: middleware.TenantID(c), Gender: domain.GenderOther}
		req.apply(&guest, loc)
		// Name is the only mandatory field
		if guest.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&guest).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"tenant_id": guest.UserID, // Tenant ID
				"error":     err.Error(),  // Error message
			}).Error("Failed to create guest")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
			return
		}
		invalidateStats(c.Request.Context(), rdb, guest.UserID)
		c.JSON(http.StatusCreated, guest)
	}
}

// UpdateGuestHandler changes the given fields of a guest
func UpdateGuestHandler(db *gorm.DB, rdb *redis.Client, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req GuestRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var guest domain.Guest // Fetch guest owned by the tenant
		if err := tenantGuests(db, c).First(&guest, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guest not found"})
			return
		}
		req.apply(&guest, loc)
		if guest.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
			return
		}
		if err := db.WithContext(c.Request.Context()).Save(&guest).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"guest_id": id,          // Guest ID
				"error":    err.Error(), // Error message
			}).Error("Failed to update guest")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update guest"})
			return
		}
		invalidateStats(c.Request.Context(), rdb, guest.UserID)
		// Return with the room attached
		if err := tenantGuests(db, c).Preload("Room").First(&guest, id).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"guest_id": id,          // Guest ID
				"error":    err.Error(), // Error message
			}).Warn("Failed to reload updated guest")
		}
		c.JSON(http.StatusOK, guest)
	}
}

// DeleteGuestHandler removes one guest
func DeleteGuestHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		res := tenantGuests(db, c).Delete(&domain.Guest{}, id)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guest"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Guest not found"})
			return
		}
		invalidateStats(c.Request.Context(), rdb, middleware.TenantID(c))
		c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
	}
}

// DeleteAllGuestsHandler removes every guest of the wedding
func DeleteAllGuestsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := middleware.TenantID(c)
		res := tenantGuests(db, c).Delete(&domain.Guest{})
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guests"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"tenant_id": tenantID,         // Tenant ID
			"count":     res.RowsAffected, // Guests removed
		}).Info("All guests deleted")
		invalidateStats(c.Request.Context(), rdb, tenantID)
		c.JSON(http.StatusOK, gin.H{"message": "All guests deleted", "count": res.RowsAffected})
	}
}

// BulkDeleteRequest lists guests to delete
type BulkDeleteRequest struct {
	IDs []uint `json:"ids"` // Guest IDs
}

// BulkDeleteGuestsHandler removes the listed guests
func BulkDeleteGuestsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkDeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.IDs == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "IDs must be an array"})
			return
		}
		var deleted int64
		if len(req.IDs) > 0 {
			res := tenantGuests(db, c).Where("id IN ?", req.IDs).Delete(&domain.Guest{})
			if res.Error != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guests"})
				return
			}
			deleted = res.RowsAffected
		}
		invalidateStats(c.Request.Context(), rdb, middleware.TenantID(c))
		c.JSON(http.StatusOK, gin.H{"message": formatCount(deleted, "guest") + " deleted", "count": deleted})
	}
}

// UploadGuestsHandler imports guests from an .xlsx file sent as multipart field "file"
func UploadGuestsHandler(db *gorm.DB, rdb *redis.Client, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes) // Cap upload size
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		defer f.Close()

		rows, err := importer.ReadXLSX(f)
		if errors.Is(err, importer.ErrNoGuests) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No valid guest data found in file. Make sure your columns are labeled Name and Phone."})
			return
		} else if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}

		tenantID := middleware.TenantID(c)
		guests := make([]domain.Guest, len(rows))
		for i, r := range rows {
			guests[i] = domain.Guest{UserID: tenantID, Name: r.Name, Mobile: r.Mobile, Gender: r.Gender, Side: r.Side}
		}
		if err := db.WithContext(c.Request.Context()).CreateInBatches(&guests, 100).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"tenant_id": tenantID,    // Tenant ID
				"rows":      len(rows),   // Parsed rows
				"error":     err.Error(), // Error message
			}).Error("Guest import failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save guests"})
			return
		}
		metrics.GuestsImportedTotal.Add(float64(len(guests)))
		logrus.WithFields(logrus.Fields{
			"tenant_id": tenantID,    // Tenant ID
			"count":     len(guests), // Imported guests
		}).Info("Guests imported")
		invalidateStats(c.Request.Context(), rdb, tenantID)
		c.JSON(http.StatusOK, gin.H{"message": "Successfully uploaded " + formatCount(int64(len(guests)), "guest"), "count": len(guests)})
	}
}
