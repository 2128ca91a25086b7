package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite opens the database at dbPath and applies pending embedded migrations.
// Query warnings go to writer, or stdout when writer is nil.
func OpenSQLite(dbPath string, writer gormlogger.Writer) (*gorm.DB, error) {
	database, err := openSQLite(dbPath, writer)
	if err != nil {
		return nil, err
	}

	if _, err := ApplyMigrations(database); err != nil {
		return nil, fmt.Errorf("apply embedded migrations: %w", err)
	}

	return database, nil
}

// OpenSQLiteWithoutMigrations opens the database and leaves the schema untouched.
func OpenSQLiteWithoutMigrations(dbPath string, writer gormlogger.Writer) (*gorm.DB, error) {
	return openSQLite(dbPath, writer)
}

func openSQLite(dbPath string, writer gormlogger.Writer) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if writer == nil {
		writer = log.New(os.Stdout, "\r\n", log.LstdFlags)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			writer,
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return database, nil
}
