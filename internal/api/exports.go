package api

import (
	"bytes"                              // PDF buffering
	"net/http"                           // HTTP status codes
	"shaadi_planner/internal/domain"     // Importing domain models
	"shaadi_planner/internal/metrics"    // Prometheus collectors
	"shaadi_planner/internal/middleware" // Request identity
	"shaadi_planner/internal/report"     // Excel and PDF rendering

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// sendFile writes a generated report as an attachment
func sendFile(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// reportFailed logs a rendering error and answers 500
func reportFailed(c *gin.Context, kind string, err error) {
	logrus.WithFields(logrus.Fields{
		"tenant_id": middleware.TenantID(c), // Tenant ID
		"report":    kind,                   // Report kind
		"error":     err.Error(),            // Error message
	}).Error("Failed to generate report")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
}

// loadRoomLayout fetches rooms with guests and the unassigned queue
func loadRoomLayout(db *gorm.DB, c *gin.Context) ([]domain.Room, []domain.Guest, error) {
	var rooms []domain.Room
	if err := tenantRooms(db, c).Preload("Guests", guestsByName).Order("id").Find(&rooms).Error; err != nil {
		return nil, nil, err
	}
	var unassigned []domain.Guest
	if err := tenantGuests(db, c).Where("room_id IS NULL").Order("id").Find(&unassigned).Error; err != nil {
		return nil, nil, err
	}
	return rooms, unassigned, nil
}

// RoomExcelHandler exports the room layout as a workbook
func RoomExcelHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, unassigned, err := loadRoomLayout(db, c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
			return
		}
		data, err := report.RoomLayoutExcel(rooms, unassigned)
		if err != nil {
			reportFailed(c, "rooms", err)
			return
		}
		metrics.RecordReport("rooms", "xlsx")
		sendFile(c, "Room_Layout.xlsx", report.ContentTypeXLSX, data)
	}
}

// RoomPDFHandler exports the room layout as a PDF
func RoomPDFHandler(db *gorm.DB, opts report.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, unassigned, err := loadRoomLayout(db, c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
			return
		}
		var buf bytes.Buffer
		if err := report.RoomLayoutPDF(&buf, rooms, unassigned, opts); err != nil {
			reportFailed(c, "rooms", err)
			return
		}
		metrics.RecordReport("rooms", "pdf")
		sendFile(c, "Room_Layout.pdf", report.ContentTypePDF, buf.Bytes())
	}
}

// travelRequest parses ?mode= and loads the guests, writing the error response itself
func travelRequest(db *gorm.DB, c *gin.Context) (report.Mode, []domain.Guest, bool) {
	mode, err := report.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode: use all, arrivals or departures"})
		return "", nil, false
	}
	var guests []domain.Guest
	if err := tenantGuests(db, c).Order("id").Find(&guests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guests"})
		return "", nil, false
	}
	return mode, guests, true
}

// TravelExcelHandler exports arrivals and departures as a workbook
func TravelExcelHandler(db *gorm.DB, opts report.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode, guests, ok := travelRequest(db, c)
		if !ok {
			return
		}
		data, err := report.TravelExcel(guests, mode, opts)
		if err != nil {
			reportFailed(c, "travel", err)
			return
		}
		metrics.RecordReport("travel", "xlsx")
		sendFile(c, "Travel_Report_"+string(mode)+".xlsx", report.ContentTypeXLSX, data)
	}
}

// TravelPDFHandler exports arrivals and departures as a PDF
func TravelPDFHandler(db *gorm.DB, opts report.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode, guests, ok := travelRequest(db, c)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := report.TravelPDF(&buf, guests, mode, opts); err != nil {
			reportFailed(c, "travel", err)
			return
		}
		metrics.RecordReport("travel", "pdf")
		sendFile(c, "Travel_Report_"+string(mode)+".pdf", report.ContentTypePDF, buf.Bytes())
	}
}

// loadGuestList fetches every guest with its room, by name
func loadGuestList(db *gorm.DB, c *gin.Context) ([]domain.Guest, error) {
	var guests []domain.Guest
	err := tenantGuests(db, c).Preload("Room").Order("name").Find(&guests).Error
	return guests, err
}

// GuestListPDFHandler exports the master guest list as a PDF
func GuestListPDFHandler(db *gorm.DB, opts report.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		guests, err := loadGuestList(db, c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guests"})
			return
		}
		var buf bytes.Buffer
		if err := report.GuestListPDF(&buf, guests, opts); err != nil {
			reportFailed(c, "guests", err)
			return
		}
		metrics.RecordReport("guests", "pdf")
		sendFile(c, "Guest_List.pdf", report.ContentTypePDF, buf.Bytes())
	}
}

// GuestListExcelHandler exports the master guest list as a workbook
func GuestListExcelHandler(db *gorm.DB, opts report.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		guests, err := loadGuestList(db, c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guests"})
			return
		}
		data, err := report.GuestListExcel(guests, opts)
		if err != nil {
			reportFailed(c, "guests", err)
			return
		}
		metrics.RecordReport("guests", "xlsx")
		sendFile(c, "Guest_List.xlsx", report.ContentTypeXLSX, data)
	}
}
