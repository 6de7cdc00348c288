package backup

import (
	"context"
	"fmt"
	"os"
)

// FileStore is the filesystem collaborator used by the codec. Each call is
// assumed atomic at single-file granularity: it fully succeeds or fails
// with no partial write visible to later reads.
type FileStore interface {
	WriteText(path, content string) error
	ReadText(path string) (string, error)
	ListDirectory(dir string) ([]string, error)
	DeleteFile(path string) error
}

// Sharer hands a finished backup file to the platform share mechanism.
// Failures are non-fatal and never affect the underlying file.
type Sharer interface {
	Share(ctx context.Context, path, mimeType string) error
}

// DiskStore implements FileStore on the local filesystem.
type DiskStore struct{}

func (DiskStore) WriteText(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func (DiskStore) ReadText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (DiskStore) ListDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (DiskStore) DeleteFile(path string) error {
	return os.Remove(path)
}

// ResolveDocumentsDir ensures the private documents directory exists and
// returns its path.
func ResolveDocumentsDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("documents directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create documents directory: %w", err)
	}
	return dir, nil
}
