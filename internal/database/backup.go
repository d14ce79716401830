package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"hostelhub/internal/config"
)

// BackupRunner snapshots the sqlite file on a schedule and prunes
// copies older than the retention window.
type BackupRunner struct {
	dbPath string
	cfg    config.BackupConfig
	logger *zerolog.Logger
}

func NewBackupRunner(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupRunner {
	return &BackupRunner{dbPath: dbPath, cfg: cfg, logger: logger}
}

// Run blocks until ctx is done. The first snapshot is taken immediately
// so a fresh deployment is covered before the first tick.
func (b *BackupRunner) Run(ctx context.Context) {
	if !b.cfg.Enabled {
		b.logger.Info().Msg("database backups disabled")
		return
	}

	interval := 24 * time.Hour
	if b.cfg.Schedule != "" {
		parsed, err := time.ParseDuration(b.cfg.Schedule)
		if err != nil || parsed <= 0 {
			b.logger.Warn().Err(err).Str("schedule", b.cfg.Schedule).Msg("invalid backup schedule, using 24h")
		} else {
			interval = parsed
		}
	}
	b.logger.Info().Dur("interval", interval).Str("path", b.cfg.Path).Msg("database backups started")

	if _, err := b.Snapshot(); err != nil {
		b.logger.Error().Err(err).Msg("initial backup failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.Snapshot(); err != nil {
				b.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			b.prune()
		}
	}
}

// Snapshot writes one timestamped copy and returns its path. VACUUM INTO
// gives a consistent online copy; a raw file copy is the fallback when
// the source cannot be opened as a database.
func (b *BackupRunner) Snapshot() (string, error) {
	if err := os.MkdirAll(b.cfg.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating backup directory: %v", err)
	}

	fileName := fmt.Sprintf("hostelhub_%s.db", time.Now().Format("20060102_150405"))
	target := filepath.Join(b.cfg.Path, fileName)

	source, err := sql.Open("sqlite3", b.dbPath)
	if err != nil {
		return "", fmt.Errorf("error opening source database: %v", err)
	}
	defer source.Close()

	if _, err := source.Exec(fmt.Sprintf("VACUUM INTO '%s'", target)); err != nil {
		b.logger.Warn().Err(err).Msg("VACUUM INTO failed, copying file instead")
		if err := b.copyFile(target); err != nil {
			return "", err
		}
	}

	b.logger.Info().Str("path", target).Msg("backup written")
	return target, nil
}

func (b *BackupRunner) copyFile(target string) error {
	source, err := os.Open(b.dbPath)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(target)
	if err != nil {
		return err
	}
	defer destination.Close()

	// not crash-consistent while writes are in flight; last resort only
	_, err = io.Copy(destination, source)
	return err
}

// prune removes backups older than the retention window.
func (b *BackupRunner) prune() {
	if b.cfg.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(b.cfg.Path)
	if err != nil {
		b.logger.Error().Err(err).Msg("cannot read backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -b.cfg.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			b.logger.Info().Str("file", entry.Name()).Msg("pruning old backup")
			_ = os.Remove(filepath.Join(b.cfg.Path, entry.Name()))
		}
	}
}
