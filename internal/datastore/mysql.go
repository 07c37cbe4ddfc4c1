package datastore

import (
	"fmt"
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/dawnstudy/attendance/internal/conf"
)

const (
	mysqlMaxOpenConns    = 10
	mysqlMaxIdleConns    = 5
	mysqlConnMaxLifetime = 30 * time.Minute
)

// mysqlDSN returns the explicit DSN when configured, otherwise one built from
// the discrete settings. Times are read and written in UTC.
func mysqlDSN(settings conf.MySQLSettings) (string, error) {
	if settings.DSN != "" {
		cfg, err := gomysql.ParseDSN(settings.DSN)
		if err != nil {
			return "", fmt.Errorf("invalid MySQL DSN: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return cfg.FormatDSN(), nil
	}

	cfg := gomysql.NewConfig()
	cfg.User = settings.Username
	cfg.Passwd = settings.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(settings.Host, strconv.Itoa(settings.Port))
	cfg.DBName = settings.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN(), nil
}

func openMySQL(settings conf.MySQLSettings, gormConfig *gorm.Config) (*gorm.DB, error) {
	dsn, err := mysqlDSN(settings)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(mysqlMaxOpenConns)
	sqlDB.SetMaxIdleConns(mysqlMaxIdleConns)
	sqlDB.SetConnMaxLifetime(mysqlConnMaxLifetime)

	return db, nil
}
