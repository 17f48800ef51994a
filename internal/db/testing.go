package db

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var tempDBSeq int64

// CreateTempDB returns a migrated in-memory SQLite database private to t.
// The connection pool is pinned to one connection so that every query sees
// the same in-memory database.
func CreateTempDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:blogtest%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddInt64(&tempDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open temp db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("temp db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate temp db: %v", err)
	}
	return db
}
