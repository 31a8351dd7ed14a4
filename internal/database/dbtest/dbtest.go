// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"example.com/restaurant-pos/config"
	"example.com/restaurant-pos/internal/database"
	"example.com/restaurant-pos/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New returns a private in-memory SQLite database with every model migrated.
// A single connection is used so transactions serialize the way a row lock would.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:       database.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	db, err := database.Connect(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, models.SetupModels(db))

	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
