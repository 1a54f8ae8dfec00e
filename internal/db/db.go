package db

import (
	"fmt"                            // Error wrapping
	"shaadi_planner/internal/config" // Custom package for configuration

	"gorm.io/driver/mysql"  // MySQL driver for GORM
	"gorm.io/driver/sqlite" // SQLite driver for GORM
	"gorm.io/gorm"          // GORM ORM library
	"gorm.io/gorm/logger"   // GORM logger
)

// Open connects to the database selected by cfg.DBDriver
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true} // Surface gorm.ErrDuplicatedKey
	// Keep SQL logging quiet in production
	if cfg.IsProd {
		gormCfg.Logger = logger.Default.LogMode(logger.Error)
	}
	switch cfg.DBDriver {
	case "", "mysql":
		return gorm.Open(mysql.Open(cfg.DSN()), gormCfg)
	case "sqlite":
		return OpenSQLite(cfg.DBPath, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// OpenSQLite opens a SQLite database with foreign keys enabled.
// A single connection keeps ":memory:" databases shared across queries.
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{TranslateError: true}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
