package api

import (
	"bytes"                         // JSON null detection
	"context"                       // Context for Redis operations
	"encoding/json"                 // Field decoding
	"errors"                        // Error matching
	"net/http"                      // HTTP status codes
	"shaadi_planner/internal/utils" // Utility functions
	"strconv"                       // ID parsing

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// pathID parses the :id route parameter, writing a 400 when it is not a positive integer
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// invalidateStats drops the tenant's cached dashboard after a mutation
func invalidateStats(ctx context.Context, rdb *redis.Client, tenantID uint) {
	if err := utils.DeleteCache(ctx, rdb, utils.StatsCacheKey(tenantID)); err != nil {
		logrus.WithFields(logrus.Fields{
			"tenant_id": tenantID,    // Tenant whose cache is stale
			"error":     err.Error(), // Error message
		}).Warn("Failed to invalidate stats cache")
	}
}

// optionalString tells an absent JSON field apart from null or a value
type optionalString struct {
	Set   bool   // Field present in the body
	Value string // Empty for null or non-string values
}

// UnmarshalJSON is only called when the field is present
func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = ""
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		o.Value = "" // Numbers and objects sanitize to null
	}
	return nil
}

// optionalID is a nullable foreign key: absent, null, or an id
type optionalID struct {
	Set   bool  // Field present in the body
	Value *uint // nil for null
}

// UnmarshalJSON accepts null, numbers and numeric strings
func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = nil
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n = json.Number(s)
	}
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return err
	}
	id := uint(v)
	o.Value = &id
	return nil
}

// formatCount renders "1 guest" or "3 guests"
func formatCount(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.FormatInt(n, 10) + " " + noun + "s"
}

// statusError aborts a transaction with a client facing status
type statusError struct {
	status int    // HTTP status code
	msg    string // Message for the error body
}

func (e *statusError) Error() string { return e.msg }

// writeTxError maps a transaction error to a response
func writeTxError(c *gin.Context, err error, fallback string) {
	var se *statusError
	if errors.As(err, &se) {
		c.JSON(se.status, gin.H{"error": se.msg})
		return
	}
	logrus.WithField("error", err.Error()).Error(fallback)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
