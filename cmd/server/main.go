package main

import (
	"context"                          // context package is needed for Redis operations
	"errors"                           // Error matching
	"net/http"                         // HTTP server
	"os"                               // Signals
	"os/signal"                        // Graceful shutdown
	"shaadi_planner/internal/api"      // Custom package for API handlers
	"shaadi_planner/internal/config"   // Custom package for configuration
	"shaadi_planner/internal/db"       // Custom package for the database
	"shaadi_planner/internal/invite"   // AI text generation
	"shaadi_planner/internal/whatsapp" // WhatsApp sessions
	"syscall"                          // SIGTERM
	"time"                             // Timeouts

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// Connect to the database
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	// SQLite is a local setup, so create its tables on start
	if cfg.DBDriver == "sqlite" {
		db.Migrate(gdb)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// One headless browser per wedding, profiles kept on disk
	wa := whatsapp.NewManager(whatsapp.NewBrowserFactory(whatsapp.BrowserConfig{
		DataDir:     cfg.WhatsAppDataDir,
		Bin:         cfg.WhatsAppBrowserBin,
		PairTimeout: cfg.WhatsAppPairTimeout,
		Headless:    true,
	}), cfg.WhatsAppDataDir)

	// AI generation is optional
	var gen invite.Generator
	if g, err := invite.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel); err == nil {
		gen = g
	} else {
		logrus.Warnf("AI generation disabled: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		Config:    cfg,
		DB:        gdb,
		Redis:     redisClient,
		WhatsApp:  wa,
		Sender:    whatsapp.NewSender(cfg.WhatsAppInterval, cfg.WhatsAppCountryCode),
		Generator: gen,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for an interrupt, then drain requests and close browsers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	wa.Shutdown()
	_ = redisClient.Close()
}
