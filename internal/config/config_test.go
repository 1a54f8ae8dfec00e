package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "JWT_TTL", "CORS_ORIGINS", "WHATSAPP_SEND_INTERVAL", "UPLOAD_MAX_BYTES"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "5001", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.WhatsAppInterval)
	assert.Equal(t, int64(5<<20), cfg.UploadMaxBytes)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("WHATSAPP_SEND_INTERVAL", "not-a-duration")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.WhatsAppInterval)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProd)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "root", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "shaadi"}
	assert.Equal(t, "root:pw@tcp(db:3306)/shaadi?parseTime=true", cfg.DSN())
}
