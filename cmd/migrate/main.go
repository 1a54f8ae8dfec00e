package main

import (
	"shaadi_planner/internal/config" // Custom import path (Config)
	"shaadi_planner/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	gdb, err := db.Open(cfg) // Connect using DB_DRIVER
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	db.Migrate(gdb)
}
