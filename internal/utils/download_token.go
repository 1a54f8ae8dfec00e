package utils

import (
	"context" // Context for Redis operations
	"errors"  // Sentinel errors
	"strconv" // Value encoding
	"time"    // Token lifetime

	"github.com/google/uuid"       // Random token generation
	"github.com/redis/go-redis/v9" // Redis client
)

// DownloadTokenTTL is how long a download token stays valid
const DownloadTokenTTL = time.Minute

// ErrInvalidDownloadToken is returned for unknown, expired or used tokens
var ErrInvalidDownloadToken = errors.New("invalid or expired download token")

func downloadTokenKey(token string) string {
	return "download:token:" + token
}

// IssueDownloadToken stores a single-use token bound to userID
func IssueDownloadToken(ctx context.Context, rdb *redis.Client, userID uint) (string, error) {
	token := uuid.NewString()
	if err := rdb.Set(ctx, downloadTokenKey(token), strconv.FormatUint(uint64(userID), 10), DownloadTokenTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeDownloadToken returns the user bound to token and deletes it
func ConsumeDownloadToken(ctx context.Context, rdb *redis.Client, token string) (uint, error) {
	if token == "" {
		return 0, ErrInvalidDownloadToken
	}
	val, err := rdb.GetDel(ctx, downloadTokenKey(token)).Result()
	if err == redis.Nil {
		return 0, ErrInvalidDownloadToken
	} else if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidDownloadToken
	}
	return uint(id), nil
}
