// Package datastore is the record store of the attendance service: attendance
// records, notification correlation records, problem sets and channel presence,
// persisted with GORM on SQLite or MySQL.
//
// Every write is a targeted column update or an upsert keyed by the natural
// key; nothing is cached in process.
package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dawnstudy/attendance/internal/conf"
	"github.com/dawnstudy/attendance/internal/logger"
)

// slowQueryThreshold is the duration after which a statement is logged as slow.
const slowQueryThreshold = 500 * time.Millisecond

// Store is the GORM-backed record store. It is safe for concurrent use.
type Store struct {
	db     *gorm.DB
	driver string
	log    logger.Logger
}

// Open connects to the configured database and migrates the schema.
func Open(ctx context.Context, settings conf.DatabaseSettings, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Global().Module("datastore")
	}

	var (
		db  *gorm.DB
		err error
	)
	gormConfig := &gorm.Config{
		Logger:  logger.NewGormLoggerAdapter(log, slowQueryThreshold),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	switch settings.Driver {
	case "sqlite":
		db, err = openSQLite(settings.SQLite, gormConfig)
	case "mysql":
		db, err = openMySQL(settings.MySQL, gormConfig)
	default:
		return nil, validationError(fmt.Sprintf("unsupported database driver %q", settings.Driver), "driver", settings.Driver)
	}
	if err != nil {
		log.Error("failed to open database", logger.String("driver", settings.Driver), logger.Error(err))
		return nil, dbError(err, "open", "driver", settings.Driver)
	}

	store := &Store{db: db, driver: settings.Driver, log: log}
	if err := store.migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	log.Info("database ready", logger.String("driver", settings.Driver))
	return store, nil
}

// migrate creates or updates every table.
func (s *Store) migrate(ctx context.Context) error {
	start := time.Now()
	if err := s.db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return dbError(err, "migrate", "driver", s.driver)
	}
	s.log.Debug("schema migrated",
		logger.Int("tables", len(models)),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "ping")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbError(err, "ping")
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	return nil
}
