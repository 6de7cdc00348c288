// Package worker uploads exported backups to Google Drive, driven by
// AMQP events with a periodic catch-up pass for missed messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mymoney/internal/amqp"
	"mymoney/internal/storage"
)

// Uploader pushes a local file to remote storage and returns a remote
// reference.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// SyncWorker handles synchronization of backup files from disk to
// Google Drive.
type SyncWorker struct {
	storage   *storage.Repository
	uploader  Uploader
	batchSize int
}

func NewSyncWorker(storage *storage.Repository, uploader Uploader, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		uploader:  uploader,
		batchSize: batchSize,
	}
}

// HandleBackupCreated processes a single backup-created message from
// AMQP.
func (w *SyncWorker) HandleBackupCreated(ctx context.Context, msg *amqp.BackupCreatedMessage) error {
	slog.InfoContext(ctx, "Processing backup created message",
		"record_id", msg.RecordID,
		"path", msg.Path)

	return w.uploadBackup(ctx, msg.RecordID, msg.Path)
}

// ProcessPendingBackups uploads any backups that haven't been synced
// yet. This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingBackups(ctx context.Context) error {
	pending, err := w.storage.ListUnsyncedBackups(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced backups: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending backups", "count", len(pending))

	for _, record := range pending {
		if err := w.uploadBackup(ctx, record.ID, record.Path); err != nil {
			slog.ErrorContext(ctx, "Failed to sync backup",
				"record_id", record.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck uploads pending backups at worker startup, useful to
// recover from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListUnsyncedBackups(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unsynced backups for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending backups found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending backups on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, record := range pending {
		if err := w.uploadBackup(ctx, record.ID, record.Path); err != nil {
			slog.ErrorContext(ctx, "Failed to sync backup during startup",
				"record_id", record.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) uploadBackup(ctx context.Context, recordID int64, path string) error {
	if _, err := os.Stat(path); err != nil {
		// The file was deleted before the worker got to it. Mark the
		// record synced so it stops showing up as pending.
		slog.WarnContext(ctx, "Backup file missing, skipping upload",
			"record_id", recordID, "path", path)
		if markErr := w.storage.MarkBackupSynced(ctx, recordID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark missing backup",
				"record_id", recordID, "error", markErr)
		}
		return nil
	}

	start := time.Now()
	ref, err := w.uploader.Upload(ctx, path)
	if err != nil {
		return fmt.Errorf("upload backup: %w", err)
	}

	if err := w.storage.MarkBackupSynced(ctx, recordID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark backup as synced",
			"record_id", recordID, "error", err)
		// Don't return error here - the upload actually worked
	}

	slog.InfoContext(ctx, "Successfully synced backup",
		"record_id", recordID,
		"remote_ref", ref,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
