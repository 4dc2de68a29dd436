package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// FileStorage persists snapshots to a single file, writing a sibling
// temp file first and renaming it into place so readers never observe
// a torn snapshot.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed Storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load returns the stored snapshot, or nil when the file does not
// exist yet.
func (f *FileStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return data, nil
}

// Write durably replaces the stored snapshot.
func (f *FileStorage) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePermission); err != nil {
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}
