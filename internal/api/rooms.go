package api

import (
	"fmt"                                // Room naming
	"net/http"                           // HTTP status codes
	"shaadi_planner/internal/domain"     // Importing domain models
	"shaadi_planner/internal/middleware" // Request identity
	"strings"                            // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
	"gorm.io/gorm/clause"          // Row locking
)

const (
	defaultRoomCapacity = 2      // Beds in a new room
	defaultRoomPrefix   = "Room" // Name prefix for bulk rooms
	maxBulkRooms        = 200    // Upper bound for one bulk request
)

// tenantRooms scopes room queries to the caller's wedding
func tenantRooms(db *gorm.DB, c *gin.Context) *gorm.DB {
	return db.WithContext(c.Request.Context()).Where("user_id = ?", middleware.TenantID(c))
}

// roomForUpdate scopes to the tenant's rooms and locks the rows it reads until
// tx ends, so concurrent allocations into the same room are serialized
func roomForUpdate(tx *gorm.DB, tenantID uint) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", tenantID)
}

// guestsByName preloads room guests in a stable order
func guestsByName(db *gorm.DB) *gorm.DB {
	return db.Order("name")
}

// ListRoomsHandler returns every room with its guests
func ListRoomsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms := []domain.Room{} // Encode as [] when empty
		if err := tenantRooms(db, c).Preload("Guests", guestsByName).Order("id").Find(&rooms).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
			return
		}
		for i := range rooms {
			if rooms[i].Guests == nil {
				rooms[i].Guests = []domain.Guest{}
			}
		}
		c.JSON(http.StatusOK, rooms)
	}
}

// CreateRoomRequest represents a new room
type CreateRoomRequest struct {
	Name     string `json:"name"`     // Room name
	Capacity *int   `json:"capacity"` // Beds, defaults to 2
}

// CreateRoomHandler adds one room
func CreateRoomHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRoomRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Room name is required"})
			return
		}
		capacity := defaultRoomCapacity
		if req.Capacity != nil {
			capacity = *req.Capacity
		}
		if capacity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Capacity must be at least 1"})
			return
		}
		room := domain.Room{UserID: middleware.TenantID(c), Name: name, Capacity: capacity, Guests: []domain.Guest{}}
		if err := db.WithContext(c.Request.Context()).Create(&room).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
			return
		}
		invalidateStats(c.Request.Context(), rdb, room.UserID)
		c.JSON(http.StatusCreated, room)
	}
}

// BulkRoomsRequest creates numbered rooms
type BulkRoomsRequest struct {
	Count    int    `json:"count"`    // Rooms to create
	Capacity *int   `json:"capacity"` // Beds per room, defaults to 2
	Prefix   string `json:"prefix"`   // Name prefix, defaults to "Room"
}

// BulkCreateRoomsHandler creates Count rooms named "<prefix> <n>", continuing
// the numbering after the rooms that already exist
func BulkCreateRoomsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkRoomsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Count < 1 || req.Count > maxBulkRooms {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Count must be between 1 and %d", maxBulkRooms)})
			return
		}
		capacity := defaultRoomCapacity
		if req.Capacity != nil {
			capacity = *req.Capacity
		}
		if capacity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Capacity must be at least 1"})
			return
		}
		prefix := strings.TrimSpace(req.Prefix)
		if prefix == "" {
			prefix = defaultRoomPrefix
		}
		tenantID := middleware.TenantID(c)

		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var existing int64 // Rooms already created
			if err := tx.Model(&domain.Room{}).Where("user_id = ?", tenantID).Count(&existing).Error; err != nil {
				return err
			}
			rooms := make([]domain.Room, req.Count)
			for i := range rooms {
				rooms[i] = domain.Room{
					UserID:   tenantID,
					Name:     fmt.Sprintf("%s %d", prefix, int(existing)+i+1),
					Capacity: capacity,
				}
			}
			return tx.Create(&rooms).Error
		})
		if err != nil {
			writeTxError(c, err, "Failed to create rooms")
			return
		}
		logrus.WithFields(logrus.Fields{
			"tenant_id": tenantID,  // Tenant ID
			"count":     req.Count, // Rooms created
		}).Info("Rooms created in bulk")
		invalidateStats(c.Request.Context(), rdb, tenantID)
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Created %d rooms", req.Count), "count": req.Count})
	}
}

// UpdateRoomRequest changes the given room fields
type UpdateRoomRequest struct {
	HasExtraBed *bool   `json:"hasExtraBed"` // Add or remove the extra bed
	Capacity    *int    `json:"capacity"`    // Beds in the room
	Name        *string `json:"name"`        // Room name
}

// UpdateRoomHandler edits a room without dropping below its occupancy
func UpdateRoomHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req UpdateRoomRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var room domain.Room
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", middleware.TenantID(c)).Preload("Guests", guestsByName).First(&room, id).Error; err != nil {
				return &statusError{http.StatusNotFound, "Room not found"}
			}
			if req.HasExtraBed != nil {
				room.HasExtraBed = *req.HasExtraBed
			}
			if req.Capacity != nil {
				if *req.Capacity < 1 {
					return &statusError{http.StatusBadRequest, "Capacity must be at least 1"}
				}
				room.Capacity = *req.Capacity
			}
			if req.Name != nil {
				name := strings.TrimSpace(*req.Name)
				if name == "" {
					return &statusError{http.StatusBadRequest, "Room name is required"}
				}
				room.Name = name
			}
			if room.Guests == nil {
				room.Guests = []domain.Guest{}
			}
			if len(room.Guests) > room.EffectiveCapacity() {
				return &statusError{http.StatusBadRequest, fmt.Sprintf("Room has %d guests; capacity cannot be lower", len(room.Guests))}
			}
			return tx.Model(&room).Select("name", "capacity", "has_extra_bed").Updates(map[string]any{
				"name":          room.Name,
				"capacity":      room.Capacity,
				"has_extra_bed": room.HasExtraBed,
			}).Error
		})
		if err != nil {
			writeTxError(c, err, "Failed to update room")
			return
		}
		invalidateStats(c.Request.Context(), rdb, room.UserID)
		c.JSON(http.StatusOK, room)
	}
}

// DeleteRoomHandler removes a room; its guests return to the unassigned queue
func DeleteRoomHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		tenantID := middleware.TenantID(c)
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&domain.Guest{}).Where("user_id = ? AND room_id = ?", tenantID, id).Update("room_id", nil).Error; err != nil {
				return err
			}
			res := tx.Where("user_id = ?", tenantID).Delete(&domain.Room{}, id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &statusError{http.StatusNotFound, "Room not found"}
			}
			return nil
		})
		if err != nil {
			writeTxError(c, err, "Failed to delete room")
			return
		}
		invalidateStats(c.Request.Context(), rdb, tenantID)
		c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
	}
}

// Allocation moves one guest into a room, or out of any room when RoomID is null
type Allocation struct {
	GuestID uint       `json:"guestId"` // Guest to move
	RoomID  optionalID `json:"roomId"`  // Target room, null to unassign
}

// AllocateHandler assigns a guest to a room if a bed is free
func AllocateHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Allocation // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.GuestID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guestId is required"})
			return
		}
		tenantID := middleware.TenantID(c)
		var guest domain.Guest
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", tenantID).First(&guest, req.GuestID).Error; err != nil {
				return &statusError{http.StatusNotFound, "Guest not found"}
			}
			// Null unassigns
			if req.RoomID.Value == nil {
				guest.RoomID = nil
				return tx.Model(&guest).Update("room_id", nil).Error
			}
			roomID := *req.RoomID.Value
			var room domain.Room
			if err := roomForUpdate(tx, tenantID).First(&room, roomID).Error; err != nil {
				return &statusError{http.StatusNotFound, "Room not found"}
			}
			// Already there
			if guest.RoomID != nil && *guest.RoomID == room.ID {
				return nil
			}
			var occupancy int64
			if err := tx.Model(&domain.Guest{}).Where("room_id = ?", room.ID).Count(&occupancy).Error; err != nil {
				return err
			}
			if occupancy >= int64(room.EffectiveCapacity()) {
				return &statusError{http.StatusBadRequest, "Room is full"}
			}
			guest.RoomID = &room.ID
			return tx.Model(&guest).Update("room_id", room.ID).Error
		})
		if err != nil {
			writeTxError(c, err, "Failed to allocate room")
			return
		}
		invalidateStats(c.Request.Context(), rdb, tenantID)
		// Return with the room attached
		if err := tenantGuests(db, c).Preload("Room").First(&guest, guest.ID).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"guest_id": guest.ID,    // Guest ID
				"error":    err.Error(), // Error message
			}).Warn("Failed to reload allocated guest")
		}
		c.JSON(http.StatusOK, guest)
	}
}

// BatchAllocateRequest applies many allocations at once
type BatchAllocateRequest struct {
	Allocations []Allocation `json:"allocations"` // Moves to apply in order
}

// BatchAllocateHandler applies every allocation or none. Final occupancy of
// each touched room must fit its capacity.
func BatchAllocateHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BatchAllocateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Allocations == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Allocations must be an array"})
			return
		}
		tenantID := middleware.TenantID(c)
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			ids := make([]uint, 0, len(req.Allocations))
			for _, a := range req.Allocations {
				if a.GuestID == 0 {
					return &statusError{http.StatusBadRequest, "guestId is required"}
				}
				ids = append(ids, a.GuestID)
			}
			var owned []uint // Guests of this tenant among ids
			if len(ids) > 0 {
				if err := tx.Model(&domain.Guest{}).Where("user_id = ? AND id IN ?", tenantID, ids).Pluck("id", &owned).Error; err != nil {
					return err
				}
			}
			known := make(map[uint]bool, len(owned))
			for _, id := range owned {
				known[id] = true
			}

			rooms := map[uint]domain.Room{} // Rooms that gain guests
			for _, a := range req.Allocations {
				if !known[a.GuestID] {
					return &statusError{http.StatusNotFound, fmt.Sprintf("Guest %d not found", a.GuestID)}
				}
				res := tx.Model(&domain.Guest{}).Where("user_id = ? AND id = ?", tenantID, a.GuestID)
				if a.RoomID.Value == nil {
					res = res.Update("room_id", nil)
				} else {
					roomID := *a.RoomID.Value
					if _, seen := rooms[roomID]; !seen {
						var room domain.Room
						if err := roomForUpdate(tx, tenantID).First(&room, roomID).Error; err != nil {
							return &statusError{http.StatusNotFound, fmt.Sprintf("Room %d not found", roomID)}
						}
						rooms[roomID] = room
					}
					res = res.Update("room_id", roomID)
				}
				if res.Error != nil {
					return res.Error
				}
			}
			// Validate the final state, so swaps within full rooms succeed
			for id, room := range rooms {
				var occupancy int64
				if err := tx.Model(&domain.Guest{}).Where("room_id = ?", id).Count(&occupancy).Error; err != nil {
					return err
				}
				if occupancy > int64(room.EffectiveCapacity()) {
					return &statusError{http.StatusBadRequest, fmt.Sprintf("Room %s is over capacity (%d/%d)", room.Name, occupancy, room.EffectiveCapacity())}
				}
			}
			return nil
		})
		if err != nil {
			writeTxError(c, err, "Failed to update allocations")
			return
		}
		invalidateStats(c.Request.Context(), rdb, tenantID)
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Successfully updated %d allocations", len(req.Allocations))})
	}
}
