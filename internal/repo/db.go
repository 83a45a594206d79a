// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// Migrate applies the schema. Columns introduced across bot revisions are
// added with a presence check first, so databases created by an earlier
// revision upgrade in place. Migrations are additive, never destructive.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Referral{},
		&domain.MemberHistoryEntry{},
		&domain.AuditEvent{},
		&domain.LeaderboardMessage{},
	); err != nil {
		return err
	}

	// Pre-AutoMigrate databases may lack columns that later revisions added.
	m := db.Migrator()
	for _, col := range []string{"is_member_active", "was_previous_resident"} {
		if !m.HasColumn(&domain.Referral{}, col) {
			if err := m.AddColumn(&domain.Referral{}, col); err != nil {
				return err
			}
		}
	}
	return nil
}
