// Package testdb opens a migrated, file-backed SQLite database for tests.
package testdb

import (
	"path/filepath"
	"testing"

	"github.com/Rakhulsr/go-storefront/app/configs"
	"github.com/Rakhulsr/go-storefront/app/models/migrations"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	// Writers take the lock at BEGIN so concurrent transactions queue on the
	// busy timeout instead of failing on lock upgrade.
	dsn := filepath.Join(t.TempDir(), "storefront.db") + "?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"

	cfg := configs.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)
	require.NoError(t, migrations.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
