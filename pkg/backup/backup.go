package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"CampusSOS/pkg/config"
	"CampusSOS/pkg/logger"
	"CampusSOS/pkg/scheduler"

	"go.uber.org/zap"
)

// Alert records are never deleted, so the database is the incident
// audit trail. The scheduler dumps it on the configured cron expression.

// StartScheduler registers the backup job. A blank schedule disables
// backups.
func StartScheduler(cr *scheduler.Cron) error {
	schedule := config.GlobalConfig.BackupSchedule
	if schedule == "" {
		return nil
	}
	_, err := cr.Add(schedule, scheduler.FuncJob(func(ctx context.Context) {
		if err := ExecuteBackup(); err != nil {
			logger.Warn("backup failed", zap.Error(err))
			return
		}
		logger.Info("backup completed")
	}))
	return err
}

// ExecuteBackup dumps the configured database into BackupPath.
func ExecuteBackup() error {
	stamp := time.Now().Format("20060102_150405")
	switch config.GlobalConfig.DBDriver {
	case "sqlite":
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("alerts_backup_%s.db", stamp))
		return backupSQLite(config.GlobalConfig.DSN, dst)
	case "mysql":
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("alerts_backup_%s.sql", stamp))
		return backupWithTool("mysqldump", config.GlobalConfig.DSN, dst)
	case "postgres":
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("alerts_backup_%s.sql", stamp))
		return backupWithTool("pg_dump", config.GlobalConfig.DSN, dst)
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", config.GlobalConfig.DBDriver)
	}
}

// backupSQLite copies the database file.
func backupSQLite(src, dst string) error {
	if err := ensureDir(dst); err != nil {
		return err
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("error copying data: %w", err)
	}

	logger.Info("database backup written", zap.String("path", dst))
	return nil
}

// backupWithTool shells out to the server's dump utility.
func backupWithTool(tool, dsn, dst string) error {
	if err := ensureDir(dst); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer out.Close()

	cmd := exec.Command(tool, dsn)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", tool, err)
	}

	logger.Info("database backup written", zap.String("path", dst))
	return nil
}

func ensureDir(dst string) error {
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
	}
	return nil
}
