package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type BackupOptions struct {
	Enabled   bool
	Dir       string
	Interval  time.Duration
	Retention int // files kept, 0 keeps everything
}

// BackupService periodically snapshots the database with VACUUM INTO,
// which is safe while the WAL is being written.
type BackupService struct {
	db   *DB
	opts BackupOptions
	now  func() time.Time
}

func NewBackupService(db *DB, opts BackupOptions) *BackupService {
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	return &BackupService{db: db, opts: opts, now: time.Now}
}

func (s *BackupService) Start(ctx context.Context) {
	if !s.opts.Enabled {
		s.db.logger.Info().Msg("Backup service is disabled")
		return
	}

	s.db.logger.Info().Dur("interval", s.opts.Interval).Str("dir", s.opts.Dir).Msg("Backup service started")

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	if _, err := s.PerformBackup(ctx); err != nil {
		s.db.logger.Error().Err(err).Msg("Initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PerformBackup(ctx); err != nil {
				s.db.logger.Error().Err(err).Msg("Scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

// PerformBackup writes a snapshot and returns its path.
func (s *BackupService) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup_%s.db", s.now().Format("20060102_150405"))
	path := filepath.Join(s.opts.Dir, name)

	s.db.logger.Info().Str("path", path).Msg("Performing database backup")

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}

	s.db.logger.Info().Str("path", path).Msg("Database backup completed")
	return path, nil
}

// CleanupOldBackups removes the oldest snapshots beyond Retention.
func (s *BackupService) CleanupOldBackups() {
	if s.opts.Retention <= 0 {
		return
	}
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		s.db.logger.Error().Err(err).Msg("Failed to read backup directory")
		return
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "backup_") && strings.HasSuffix(e.Name(), ".db") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.opts.Retention {
		return
	}
	// Timestamps in the name sort chronologically.
	sort.Strings(names)
	for _, name := range names[:len(names)-s.opts.Retention] {
		path := filepath.Join(s.opts.Dir, name)
		if err := os.Remove(path); err != nil {
			s.db.logger.Error().Err(err).Str("path", path).Msg("Failed to remove old backup")
			continue
		}
		s.db.logger.Info().Str("path", path).Msg("Removed old backup")
	}
}
