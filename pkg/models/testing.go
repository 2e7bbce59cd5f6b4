package models

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lazaroMB/mcp-to-api/pkg/config"
)

// InitializeTestDB opens an in-memory sqlite database with all migrations
// applied. Each call returns a fresh, isolated database.
func InitializeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	config.SetupEnv()

	// named in-memory DB so that all pooled connections see the same data
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, MigrationFunc(db), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
