package db

import (
	"shaadi_planner/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/gorm" // GORM ORM library
)

// Models lists every table managed by AutoMigrate
func Models() []any {
	return []any{&domain.User{}, &domain.Room{}, &domain.Guest{}, &domain.Finance{}}
}

// AutoMigrate creates tables, missing foreign keys, constraints, columns and indexes
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) {
	if err := AutoMigrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
