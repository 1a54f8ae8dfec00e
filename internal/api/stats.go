package api

import (
	"net/http"                           // HTTP status codes
	"shaadi_planner/internal/domain"     // Importing domain models
	"shaadi_planner/internal/middleware" // Request identity
	"shaadi_planner/internal/utils"      // Utility functions
	"time"                               // Cache TTL

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/sync/errgroup"   // Concurrent aggregate queries
	"gorm.io/gorm"                 // GORM ORM library
)

// StatsCacheTTL is how long a dashboard snapshot is served from Redis
const StatsCacheTTL = 30 * time.Second

// Stats is the dashboard summary of one wedding
type Stats struct {
	TotalGuests       int64   `json:"totalGuests"`       // Every guest
	TentativeGuests   int64   `json:"tentativeGuests"`   // Attendance not confirmed
	VisitingGuests    int64   `json:"visitingGuests"`    // Confirmed guests
	UnassignedGuests  int64   `json:"unassignedGuests"`  // Confirmed guests without a room
	TotalRooms        int64   `json:"totalRooms"`        // Rooms created
	TotalCapacity     int64   `json:"totalCapacity"`     // Beds including extra beds
	RemainingCapacity int64   `json:"remainingCapacity"` // Beds not yet allocated
	TotalSpent        float64 `json:"totalSpent"`        // Sum of expenses
	UnnotifiedGuests  int64   `json:"unnotifiedGuests"`  // Allocated guests not yet told
	Cached            bool    `json:"cached"`            // Served from Redis
}

// StatsHandler returns the dashboard summary of the caller's wedding
func StatsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()                               // Request scoped context
		tenantID := middleware.TenantID(c)                       // Whose wedding
		cacheKey := utils.StatsCacheKey(tenantID)                // Cache key for stats
		var stats Stats                                          // Stats struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &stats) // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			stats.Cached = true
			c.JSON(http.StatusOK, stats)
			return
		}

		var assigned int64                   // Guests holding a bed
		g, gctx := errgroup.WithContext(ctx) // First failure cancels the other queries
		guests := func() *gorm.DB {
			return db.WithContext(gctx).Model(&domain.Guest{}).Where("user_id = ?", tenantID)
		}
		g.Go(func() error { return guests().Count(&stats.TotalGuests).Error })
		g.Go(func() error { return guests().Where("is_tentative = ?", true).Count(&stats.TentativeGuests).Error })
		g.Go(func() error {
			return guests().Where("is_tentative = ? AND room_id IS NULL", false).Count(&stats.UnassignedGuests).Error
		})
		g.Go(func() error { return guests().Where("room_id IS NOT NULL").Count(&assigned).Error })
		g.Go(func() error {
			return guests().Where("room_id IS NOT NULL AND is_notified = ?", false).Count(&stats.UnnotifiedGuests).Error
		})
		g.Go(func() error {
			var rooms []domain.Room
			if err := db.WithContext(gctx).Select("id", "capacity", "has_extra_bed").Where("user_id = ?", tenantID).Find(&rooms).Error; err != nil {
				return err
			}
			stats.TotalRooms = int64(len(rooms))
			for _, r := range rooms {
				stats.TotalCapacity += int64(r.EffectiveCapacity())
			}
			return nil
		})
		g.Go(func() error {
			return db.WithContext(gctx).Model(&domain.Finance{}).Where("user_id = ?", tenantID).
				Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalSpent).Error
		})
		if err := g.Wait(); err != nil {
			logrus.WithFields(logrus.Fields{
				"tenant_id": tenantID,    // Tenant ID
				"error":     err.Error(), // Error message
			}).Error("Failed to compute stats")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}
		stats.VisitingGuests = stats.TotalGuests - stats.TentativeGuests
		stats.RemainingCapacity = stats.TotalCapacity - assigned

		_ = utils.SetCache(ctx, rdb, cacheKey, stats, StatsCacheTTL) // Cache the snapshot
		c.JSON(http.StatusOK, stats)                                 // Return stats
	}
}
