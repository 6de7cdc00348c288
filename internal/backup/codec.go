// Package backup produces and consumes MyMoney's self-describing backup
// documents: a JSON envelope carrying export metadata plus the full
// application state. Restoration pushes every record through the validate
// package and recomputes derived totals, so a tampered or truncated file
// can reduce the restored collections but never corrupt them.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mymoney/internal/core"
	"mymoney/internal/validate"
)

const (
	// AppName marks the provenance of a backup document. Import refuses
	// documents carrying any other name.
	AppName = "MyMoney"

	// AppVersion is the application version written into export metadata.
	AppVersion = "1.0.0"

	// DataVersion is the schema revision of newly exported documents.
	// Import accepts the inclusive range [MinDataVersion, DataVersion]
	// as-is; there is no migration logic for older revisions.
	DataVersion    = 5
	MinDataVersion = 1

	BackupPrefix = "mymoney_backup_"
	ReportPrefix = "mymoney_report_"

	backupMIMEType = "application/json"
	filenameLayout = "2006-01-02_15-04-05"
)

// Metadata describes one backup document.
type Metadata struct {
	AppName     string     `json:"appName"`
	Version     string     `json:"version"`
	ExportDate  string     `json:"exportDate"`
	DataVersion int        `json:"dataVersion"`
	ItemCounts  ItemCounts `json:"itemCounts"`
}

// ItemCounts records per-collection sizes at export time.
type ItemCounts struct {
	Transactions        int `json:"transactions"`
	Budgets             int `json:"budgets"`
	Savings             int `json:"savings"`
	Notes               int `json:"notes"`
	SavingsTransactions int `json:"savingsTransactions"`
}

// Envelope is the top-level backup document.
type Envelope struct {
	Metadata Metadata      `json:"metadata"`
	Data     core.AppState `json:"data"`
}

// Codec serializes application state to backup files and restores it from
// them. Now is the injected clock used for export timestamps and validator
// defaults; tests pin it for deterministic output.
type Codec struct {
	fs        FileStore
	dir       string
	validator *validate.Validator
	Now       func() time.Time
}

// New returns a codec writing into dir through fs.
func New(fs FileStore, dir string) *Codec {
	c := &Codec{fs: fs, dir: dir, Now: time.Now}
	c.validator = &validate.Validator{Now: func() time.Time { return c.now() }}
	return c
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Export writes the full application state as an indented JSON document
// and returns the file path. A missing documents directory or a failed
// write surfaces as ErrWrite.
func (c *Codec) Export(state core.AppState) (string, error) {
	if c.dir == "" {
		return "", fmt.Errorf("%w: documents directory unavailable", ErrWrite)
	}

	state.Normalize()
	now := c.now().UTC()

	env := Envelope{
		Metadata: Metadata{
			AppName:     AppName,
			Version:     AppVersion,
			ExportDate:  now.Format(time.RFC3339),
			DataVersion: DataVersion,
			ItemCounts: ItemCounts{
				Transactions:        len(state.Transactions),
				Budgets:             len(state.Budgets),
				Savings:             len(state.Savings),
				Notes:               len(state.Notes),
				SavingsTransactions: len(state.SavingsTransactions),
			},
		},
		Data: state,
	}

	doc, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	path := filepath.Join(c.dir, BackupPrefix+now.Format(filenameLayout)+".json")
	if err := c.fs.WriteText(path, string(doc)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	slog.Info("Backup exported",
		"path", path,
		"transactions", env.Metadata.ItemCounts.Transactions,
		"budgets", env.Metadata.ItemCounts.Budgets,
		"savings", env.Metadata.ItemCounts.Savings,
		"notes", env.Metadata.ItemCounts.Notes)

	return path, nil
}

// ExportReportPDF is intentionally disabled; the listing still recognizes
// report files produced by older builds.
func (c *Codec) ExportReportPDF(core.AppState) (string, error) {
	return "", ErrPDFDisabled
}

// ListBackups returns the names of backup and report files in the
// documents directory, most recent first. The timestamp embedded in each
// name sorts chronologically, so reverse name order is recency order.
func (c *Codec) ListBackups() ([]string, error) {
	entries, err := c.fs.ListDirectory(c.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	names := []string{}
	for _, name := range entries {
		if strings.HasPrefix(name, BackupPrefix) || strings.HasPrefix(name, ReportPrefix) {
			names = append(names, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// DeleteBackup removes a single named file from the documents directory
// and reports success. Nothing escapes this boundary: failure is logged
// and returned as false.
func (c *Codec) DeleteBackup(name string) bool {
	path := filepath.Join(c.dir, filepath.Base(name))
	if err := c.fs.DeleteFile(path); err != nil {
		slog.Warn("Failed to delete backup file", "path", path, "error", err)
		return false
	}
	slog.Info("Backup deleted", "path", path)
	return true
}

// Share hands a backup file to the platform share mechanism. Failure is
// non-fatal for the file itself; the caller reports it to the user.
func (c *Codec) Share(ctx context.Context, sharer Sharer, path string) error {
	if sharer == nil {
		return fmt.Errorf("%w: no share target available", ErrShare)
	}
	if err := sharer.Share(ctx, path, backupMIMEType); err != nil {
		return fmt.Errorf("%w: %v", ErrShare, err)
	}
	return nil
}
