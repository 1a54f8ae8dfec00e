package api

import (
	"net/http"                           // HTTP status codes
	"shaadi_planner/internal/config"     // Custom package for configuration
	"shaadi_planner/internal/invite"     // AI text generation
	"shaadi_planner/internal/middleware" // Custom package for middleware
	"shaadi_planner/internal/report"     // Report options
	"shaadi_planner/internal/whatsapp"   // WhatsApp sessions
	"slices"                             // Origin lookup
	"time"                               // Timezones

	"github.com/gin-contrib/cors"                             // CORS middleware
	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client
	"github.com/sirupsen/logrus"                              // Logging library
	"gorm.io/gorm"                                            // GORM ORM library
)

// Deps are the services handlers are built from
type Deps struct {
	Config    *config.Config    // Application configuration
	DB        *gorm.DB          // Database
	Redis     *redis.Client     // Cache and download tokens
	WhatsApp  *whatsapp.Manager // Per-tenant WhatsApp sessions
	Sender    *whatsapp.Sender  // Paced message sender
	Generator invite.Generator  // AI generator, nil when not configured
}

// ReportOptions builds report rendering options from cfg
func ReportOptions(cfg *config.Config) report.Options {
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		logrus.Warnf("unknown REPORT_TIMEZONE %q, using UTC: %v", cfg.ReportTimezone, err)
		loc = time.UTC
	}
	return report.Options{Location: loc, LogoPath: cfg.ReportLogoPath}
}

// corsConfig allows the SPA origins and exposes download filenames
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// NewRouter wires every route of the API
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	opts := ReportOptions(cfg)

	r := gin.Default() // Gin router instance
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)), middleware.MetricsMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Shaadi Planner API is running!")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler())) // Prometheus scrape endpoint

	// Auth routes
	auth := r.Group("/api/auth")
	auth.POST("/signup", SignupHandler(d.DB, cfg.JWTSecret, cfg.JWTTTL)) // Registration endpoint
	auth.POST("/login", LoginHandler(d.DB, cfg.JWTSecret, cfg.JWTTTL))   // Login endpoint

	// Protected routes: JWT, then tenant resolution
	protected := r.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.TenantMiddleware(d.DB))
	protected.POST("/downloads/token", DownloadTokenHandler(d.Redis)) // Single-use download token
	protected.GET("/user/share-code", ShareCodeHandler(d.DB))         // Share code and connections
	protected.POST("/user/join", JoinHandler(d.DB, d.Redis))          // Linked users may always disconnect

	// Data routes: read-only users may only GET
	data := protected.Group("")
	data.Use(middleware.ReadOnlyGuard())
	data.GET("/stats", StatsHandler(d.DB, d.Redis)) // Dashboard

	data.GET("/guests", ListGuestsHandler(d.DB))                                        // List guests
	data.GET("/guests/unnotified", UnnotifiedGuestsHandler(d.DB))                       // Allocated, not yet told
	data.POST("/guests", CreateGuestHandler(d.DB, d.Redis, opts.Location))              // Create guest
	data.PUT("/guests/:id", UpdateGuestHandler(d.DB, d.Redis, opts.Location))           // Update guest
	data.DELETE("/guests/:id", DeleteGuestHandler(d.DB, d.Redis))                       // Delete guest
	data.DELETE("/guests", DeleteAllGuestsHandler(d.DB, d.Redis))                       // Delete every guest
	data.POST("/guests/bulk-delete", BulkDeleteGuestsHandler(d.DB, d.Redis))            // Delete selected guests
	data.POST("/guests/upload", UploadGuestsHandler(d.DB, d.Redis, cfg.UploadMaxBytes)) // Spreadsheet import
	data.POST("/guests/notify", NotifyHandler(d.DB, d.Redis, d.WhatsApp, d.Sender))     // WhatsApp notification

	data.GET("/rooms", ListRoomsHandler(d.DB))                              // List rooms
	data.POST("/rooms", CreateRoomHandler(d.DB, d.Redis))                   // Create room
	data.POST("/rooms/bulk", BulkCreateRoomsHandler(d.DB, d.Redis))         // Create numbered rooms
	data.PUT("/rooms/:id", UpdateRoomHandler(d.DB, d.Redis))                // Update room
	data.DELETE("/rooms/:id", DeleteRoomHandler(d.DB, d.Redis))             // Delete room
	data.POST("/rooms/allocate", AllocateHandler(d.DB, d.Redis))            // Allocate one guest
	data.POST("/rooms/batch-allocate", BatchAllocateHandler(d.DB, d.Redis)) // Allocate many guests

	data.GET("/finance", ListFinanceHandler(d.DB))                   // List expenses
	data.GET("/finance/summary", FinanceSummaryHandler(d.DB))        // Totals per category
	data.POST("/finance", CreateFinanceHandler(d.DB, d.Redis))       // Record expense
	data.DELETE("/finance/:id", DeleteFinanceHandler(d.DB, d.Redis)) // Delete expense

	data.POST("/whatsapp/connect", WhatsAppConnectHandler(d.WhatsApp)) // Start pairing
	data.GET("/whatsapp/status", WhatsAppStatusHandler(d.WhatsApp))    // Poll pairing state
	data.POST("/whatsapp/logout", WhatsAppLogoutHandler(d.WhatsApp))   // Forget device

	data.POST("/ai/invitation", InvitationHandler(d.Generator)) // Invitation text
	data.POST("/ai/message", MessageHandler(d.Generator))       // Message template

	// Export routes also accept a single-use ?dl= token so browsers can download directly
	exports := r.Group("/api")
	exports.Use(middleware.DownloadAuthMiddleware(cfg.JWTSecret, d.Redis), middleware.TenantMiddleware(d.DB))
	exports.GET("/rooms/export/excel", RoomExcelHandler(d.DB))             // Room layout workbook
	exports.GET("/rooms/export/pdf", RoomPDFHandler(d.DB, opts))           // Room layout PDF
	exports.GET("/guests/export/travel", TravelExcelHandler(d.DB, opts))   // Travel workbook
	exports.GET("/guests/export/travel/pdf", TravelPDFHandler(d.DB, opts)) // Travel PDF
	exports.GET("/guests/export/all", GuestListExcelHandler(d.DB, opts))   // Guest list workbook
	exports.GET("/guests/export/all/pdf", GuestListPDFHandler(d.DB, opts)) // Guest list PDF

	return r
}
