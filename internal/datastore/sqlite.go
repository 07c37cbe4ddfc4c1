package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dawnstudy/attendance/internal/conf"
)

// sqliteParams waits on a locked database instead of failing with SQLITE_BUSY.
const sqliteParams = "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

func openSQLite(settings conf.SQLiteSettings, gormConfig *gorm.Config) (*gorm.DB, error) {
	if settings.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(settings.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(settings.Path+sqliteParams), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite has a single writer; one connection keeps transactions serialized.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
