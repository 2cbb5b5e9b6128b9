// Package database opens the run store's database and applies its schema.
package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// ErrUnsupportedDriver is returned for a driver other than mysql or sqlite.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config holds database connection settings.
type Config struct {
	Driver string

	Host     string
	Port     int
	User     string
	Password string
	Database string

	// Path is the sqlite database file.
	Path string

	MaxOpenConns int
	MaxIdleConns int
}

// DSN builds the MySQL data source name.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&multiStatements=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Connect opens a gorm connection for cfg.Driver and applies the pool
// limits.
func Connect(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverMySQL, "":
		dialector = mysql.Open(cfg.DSN())
	case DriverSQLite:
		// sqlite allows a single writer.
		cfg.MaxOpenConns = 1
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
