// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDatabase is an isolated in-memory SQLite database
type TestDatabase struct {
	DB *gorm.DB
	t  *testing.T
}

// SetupTestDatabase opens a fresh shared-cache in-memory database, migrates
// models into it and closes it when the test ends.
func SetupTestDatabase(t *testing.T, models ...interface{}) *TestDatabase {
	t.Helper()

	// A unique name keeps parallel tests from sharing the same memory database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")

	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...), "Failed to migrate test database")
	}

	td := &TestDatabase{DB: db, t: t}
	t.Cleanup(td.Cleanup)
	return td
}

// CountRecords returns the row count of a table, optionally filtered by a
// where clause and its arguments.
func (td *TestDatabase) CountRecords(table string, where ...interface{}) int64 {
	td.t.Helper()
	query := td.DB.Table(table)
	if len(where) > 0 {
		query = query.Where(where[0], where[1:]...)
	}
	var count int64
	require.NoError(td.t, query.Count(&count).Error)
	return count
}

// Cleanup closes the database
func (td *TestDatabase) Cleanup() {
	if sqlDB, err := td.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
