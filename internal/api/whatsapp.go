package api

import (
	"encoding/base64"                    // Image decoding
	"net/http"                           // HTTP status codes
	"shaadi_planner/internal/domain"     // Importing domain models
	"shaadi_planner/internal/middleware" // Request identity
	"shaadi_planner/internal/whatsapp"   // WhatsApp sessions
	"strings"                            // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// WhatsAppConnectHandler starts pairing for the caller's wedding
func WhatsAppConnectHandler(wa *whatsapp.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := wa.Connect(middleware.TenantID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start WhatsApp: " + err.Error(), "status": snap.Status})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// WhatsAppStatusHandler reports the session state and, while pairing, the QR code
func WhatsAppStatusHandler(wa *whatsapp.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, wa.Status(middleware.TenantID(c)))
	}
}

// WhatsAppLogoutHandler closes the session and forgets the paired device
func WhatsAppLogoutHandler(wa *whatsapp.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := wa.Logout(middleware.TenantID(c)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out of WhatsApp"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out of WhatsApp", "status": whatsapp.StatusDisconnected})
	}
}

// NotifyRequest selects guests and the message they receive
type NotifyRequest struct {
	GuestIDs    []uint `json:"guestIds"`    // Guests to notify
	Message     string `json:"message"`     // Template, see whatsapp.Render
	WeddingDate string `json:"weddingDate"` // Value of {{date}}
	Venue       string `json:"venue"`       // Value of {{venue}}
	ImageBase64 string `json:"imageBase64"` // Optional image, raw or data URL
}

// decodeImage accepts plain base64 or a data URL
func decodeImage(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if i := strings.Index(raw, ","); strings.HasPrefix(raw, "data:") && i >= 0 {
		raw = raw[i+1:]
	}
	return base64.StdEncoding.DecodeString(raw)
}

// NotifyHandler sends a WhatsApp message to each selected guest, one at a time
func NotifyHandler(db *gorm.DB, rdb *redis.Client, wa *whatsapp.Manager, sender *whatsapp.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NotifyRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.GuestIDs == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guestIds must be an array"})
			return
		}
		image, err := decodeImage(req.ImageBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "imageBase64 is not valid base64"})
			return
		}
		template := strings.TrimSpace(req.Message)
		if template == "" && len(image) == 0 {
			template = whatsapp.DefaultTemplate // Room allotment text; an image alone is sent without it
		}

		tenantID := middleware.TenantID(c)
		sess, err := wa.Ready(tenantID)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "WhatsApp is not connected. Scan the QR code first."})
			return
		}

		var guests []domain.Guest
		if len(req.GuestIDs) > 0 {
			if err := tenantGuests(db, c).Preload("Room").Where("id IN ?", req.GuestIDs).Order("name").Find(&guests).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guests"})
				return
			}
		}
		recipients := make([]whatsapp.Recipient, len(guests))
		for i, g := range guests {
			recipients[i] = whatsapp.Recipient{ID: g.ID, Name: g.Name, Mobile: g.Mobile}
			if g.Room != nil {
				recipients[i].Room = g.Room.Name
			}
		}

		ctx := c.Request.Context()
		results := sender.Send(ctx, sess, recipients, whatsapp.Message{
			Template: template,
			Date:     strings.TrimSpace(req.WeddingDate),
			Venue:    strings.TrimSpace(req.Venue),
			Image:    image,
		}, func(r whatsapp.Recipient) {
			// Mark as soon as the message is out so a later failure keeps the progress
			if err := db.WithContext(ctx).Model(&domain.Guest{}).Where("id = ?", r.ID).Update("is_notified", true).Error; err != nil {
				logrus.WithFields(logrus.Fields{"guest_id": r.ID, "error": err.Error()}).Warn("Failed to mark guest notified")
			}
		})
		sent, failed := whatsapp.Count(results)
		logrus.WithFields(logrus.Fields{
			"tenant_id": tenantID, // Tenant ID
			"sent":      sent,     // Delivered messages
			"failed":    failed,   // Failed messages
		}).Info("Guest notification finished")
		if sent > 0 {
			invalidateStats(ctx, rdb, tenantID)
		}
		c.JSON(http.StatusOK, gin.H{"sent": sent, "failed": failed, "results": results})
	}
}
