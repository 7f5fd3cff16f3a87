// Package dbtest opens throwaway SQLite stores for package tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/db/models"
)

// NewLocal returns a migrated in-memory store private to the test.
func NewLocal(t *testing.T) *db.Client {
	t.Helper()
	return open(t, "local", models.LocalModels()...)
}

// NewRemote returns an in-memory database holding the synced collections and
// identities, standing in for the PostgreSQL mirror.
func NewRemote(t *testing.T) *db.Client {
	t.Helper()
	return open(t, "remote", append(models.SyncedModels(), &models.Identity{})...)
}

func open(t *testing.T, role string, tables ...any) *db.Client {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, role)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(tables...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db.Wrap(conn)
}
