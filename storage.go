package guardrail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Storage is an interface for persisting exported redaction results.
// This is a minimal interface designed for easy integration -
// implementations can wrap existing storage clients (local disk, GCS,
// S3, etc.) with this interface.
type Storage interface {
	// SaveFile saves data to storage and returns the location it can be
	// read back from. The path should include the full object path
	// (e.g., "exports/2026/08/redaction-1234.json").
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}

// StorageResult contains information about a saved export.
type StorageResult struct {
	// URL is the location where the export can be accessed
	URL string

	// Path is the storage path/key where the export was saved
	Path string

	// Size is the number of bytes saved
	Size int
}

// SaveResult exports a redaction result as indented JSON under
// {basePath}/redaction-{id}.json. When includeSensitive is false the
// original text and detected values are stripped before export, leaving
// only placeholders and category names.
func SaveResult(
	ctx context.Context,
	storage Storage,
	result *RedactionResult,
	basePath string,
	includeSensitive bool) (*StorageResult, error) {

	if storage == nil {
		return nil, ErrStorageNotConfigured
	}
	if result == nil {
		return nil, nil
	}

	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	export := result
	if !includeSensitive {
		export = result.Sanitized()
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}

	path := filepath.Join(basePath, "redaction-"+result.ID+".json")
	url, err := storage.SaveFile(ctx, data, path, "application/json")
	if err != nil {
		return nil, err
	}

	return &StorageResult{
		URL:  url,
		Path: path,
		Size: len(data),
	}, nil
}

// LocalStorage persists files under a directory on local disk. The
// returned URL is the absolute file path.
type LocalStorage struct {
	Dir string
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage creates a Storage rooted at dir. The directory is
// created on first save.
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{Dir: dir}
}

func (s *LocalStorage) SaveFile(_ context.Context, data []byte, path string, _ string) (string, error) {
	full := filepath.Join(s.Dir, path)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}

	abs, err := filepath.Abs(full)
	if err != nil {
		return full, nil
	}
	return abs, nil
}
