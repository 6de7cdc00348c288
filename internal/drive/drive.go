// Package drive uploads exported backup files to Google Drive using a
// service account.
package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
)

type Client struct {
	svc      *gdrive.Service
	folderID string
}

// NewFromEnv creates a Drive client using environment variables.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
// folderID selects the Drive folder backups land in; empty uploads to
// the service account's root.
func NewFromEnv(ctx context.Context, folderID string) (*Client, error) {
	svc, err := newDriveService(ctx)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Client{svc: svc, folderID: folderID}, nil
}

func newDriveService(ctx context.Context) (*gdrive.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return service, nil
}

// Upload pushes a local backup file to Drive and returns the created
// file's ID.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	return c.upload(ctx, path, "application/json")
}

// Share satisfies the backup share hook: sharing a file means uploading
// it to the configured Drive folder.
func (c *Client) Share(ctx context.Context, path, mimeType string) error {
	_, err := c.upload(ctx, path, mimeType)
	return err
}

func (c *Client) upload(ctx context.Context, path, mimeType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	meta := &gdrive.File{
		Name:     filepath.Base(path),
		MimeType: mimeType,
	}
	if c.folderID != "" {
		meta.Parents = []string{c.folderID}
	}

	created, err := c.svc.Files.Create(meta).Media(f).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload to drive: %w", err)
	}

	slog.InfoContext(ctx, "Backup uploaded to Drive",
		"name", meta.Name,
		"file_id", created.Id)
	return created.Id, nil
}
