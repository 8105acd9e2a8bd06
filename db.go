package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func OpenDB(cfg *Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.New(log.New(os.Stderr, "", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	switch cfg.DBDriver {
	case "", "sqlite":
		db, err := gorm.Open(sqlite.Open(sqliteDSN(cfg.DBPath)), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite has no row locks; one connection serializes every write
		// transaction instead.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.DBDSN), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Item{},
		&MasteryRecord{},
		&Session{},
		&SessionQuestion{},
		&TestResult{},
	)
}

func IsItemTableEmpty(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&Item{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// forUpdate adds SELECT ... FOR UPDATE. The SQLite dialect drops the
// clause, which is fine given the single connection above.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
