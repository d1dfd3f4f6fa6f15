// Package dbtest opens a migrated SQLite ledger for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/LavaJover/shvark-payment-gateway/internal/config"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/migrate"
	"gorm.io/gorm"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Database{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "ledger.sqlite")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
