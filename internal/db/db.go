// Package db is the sqlite implementation of the booking store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"

	"beautybook/internal/store"
)

// DB wraps sql.DB for the booking service.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

var _ store.Store = (*DB)(nil)

// NewDB opens the database at path and runs migrations. Every transaction
// starts with BEGIN IMMEDIATE so a read-check-write holds the write lock
// from its first read.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := createTables(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS treatments (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT,
			duration INTEGER NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS professionals (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			specialty TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS professional_treatments (
			professional_id TEXT NOT NULL,
			treatment_id TEXT NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (professional_id, treatment_id),
			FOREIGN KEY (professional_id) REFERENCES professionals(id) ON DELETE CASCADE
		)`,

		// Blocks are stored as a JSON array per day.
		`CREATE TABLE IF NOT EXISTS weekly_schedules (
			professional_id TEXT NOT NULL,
			weekday TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			blocks TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (professional_id, weekday),
			FOREIGN KEY (professional_id) REFERENCES professionals(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS schedule_exceptions (
			id TEXT PRIMARY KEY,
			professional_id TEXT NOT NULL,
			date TEXT NOT NULL,
			type TEXT NOT NULL,
			reason TEXT,
			blocks TEXT NOT NULL DEFAULT '[]',
			treatments_override TEXT NOT NULL DEFAULT '[]',
			position INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (professional_id) REFERENCES professionals(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			professional_id TEXT NOT NULL,
			client_id TEXT NOT NULL,
			client_name TEXT,
			client_phone TEXT,
			treatment_id TEXT NOT NULL,
			treatments TEXT NOT NULL DEFAULT '[]',
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			start_minute INTEGER NOT NULL,
			end_minute INTEGER NOT NULL,
			duration INTEGER NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'scheduled',
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_professionals_active ON professionals(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_exceptions_professional_date ON schedule_exceptions(professional_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_day ON appointments(professional_id, date, start_minute)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
