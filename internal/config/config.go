package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort             string        // Application port
	DBDriver            string        // Database driver: mysql or sqlite
	DBUser              string        // Database user
	DBPassword          string        // Database password
	DBHost              string        // Database host
	DBPort              string        // Database port
	DBName              string        // Database name
	DBPath              string        // SQLite database file
	JWTSecret           string        // JWT secret key
	JWTTTL              time.Duration // JWT lifetime
	RedisAddr           string        // Redis server address
	RedisPass           string        // Redis password
	RedisDB             int           // Redis database number
	IsProd              bool          // Is production environment
	CORSOrigins         []string      // Allowed CORS origins
	GeminiAPIKey        string        // Gemini API key for the AI generator
	GeminiModel         string        // Gemini model name
	WhatsAppDataDir     string        // Directory holding per-tenant browser profiles
	WhatsAppBrowserBin  string        // Optional Chromium binary
	WhatsAppInterval    time.Duration // Delay between two WhatsApp sends
	WhatsAppCountryCode string        // Country code prefixed to 10-digit numbers
	WhatsAppPairTimeout time.Duration // How long a QR pairing may take
	ReportLogoPath      string        // Optional PNG drawn on PDF reports
	ReportTimezone      string        // Timezone used to render report times
	UploadMaxBytes      int64         // Max accepted upload size
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:             getEnv("APP_PORT", "5001"),                         // Application port
		DBDriver:            getEnv("DB_DRIVER", "mysql"),                       // Database driver
		DBUser:              os.Getenv("DB_USER"),                               // Database user
		DBPassword:          os.Getenv("DB_PASSWORD"),                           // Database password
		DBHost:              getEnv("DB_HOST", "127.0.0.1"),                     // Database host
		DBPort:              getEnv("DB_PORT", "3306"),                          // Database port
		DBName:              os.Getenv("DB_NAME"),                               // Database name
		DBPath:              getEnv("DB_PATH", "shaadi.db"),                     // SQLite file
		JWTSecret:           getEnv("JWT_SECRET", "wedding-secret-key-123"),     // JWT secret key
		JWTTTL:              getDuration("JWT_TTL", 7*24*time.Hour),             // JWT lifetime
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),             // Redis server address
		RedisPass:           os.Getenv("REDIS_PASS"),                            // Redis password
		RedisDB:             redisDB,                                            // Redis database number
		IsProd:              os.Getenv("IS_PROD") == "true",                     // Is production environment
		CORSOrigins:         getList("CORS_ORIGINS", []string{"*"}),             // Allowed origins
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),                        // Gemini key
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash"),         // Gemini model
		WhatsAppDataDir:     getEnv("WHATSAPP_DATA_DIR", "./whatsapp-sessions"), // Browser profiles
		WhatsAppBrowserBin:  os.Getenv("WHATSAPP_BROWSER_BIN"),                  // Chromium binary
		WhatsAppInterval:    getDuration("WHATSAPP_SEND_INTERVAL", 3*time.Second),
		WhatsAppCountryCode: getEnv("WHATSAPP_COUNTRY_CODE", "91"),
		WhatsAppPairTimeout: getDuration("WHATSAPP_PAIR_TIMEOUT", 3*time.Minute),
		ReportLogoPath:      os.Getenv("REPORT_LOGO_PATH"),
		ReportTimezone:      getEnv("REPORT_TIMEZONE", "Asia/Kolkata"),
		UploadMaxBytes:      getInt64("UPLOAD_MAX_BYTES", 5<<20),
	}
}

// DSN returns the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// getEnv returns the variable or def when unset
func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getDuration parses a Go duration, falling back to def on absence or error
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func getInt64(key string, def int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// getList splits a comma separated variable, dropping empty entries
func getList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
