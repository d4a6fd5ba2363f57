// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	gormModels "github.com/alchemorsel/mealswap/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/seed"
)

// SetupDatabase opens the SQLite database at dbPath and migrates the schema.
// An empty path opens a private in-memory database.
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// An in-memory database lives as long as its single connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase loads the starter catalog into an empty foods table
func SeedDatabase(ctx context.Context, db *gorm.DB) (int, error) {
	return seed.Load(ctx, gormModels.NewFoodRepository(db))
}

// ParseLogLevel maps a config log level onto gorm's levels
func ParseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}
