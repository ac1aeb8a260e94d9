package server

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage keeps the uploaded images of a request while they are converted
type Storage interface {
	// Save writes a file of the batch and returns its path
	Save(batch, filename string, data []byte) (string, error)

	// Delete removes the batch and all its files
	Delete(batch string) error
}

// LocalStorage implements the Storage interface using local filesystem,
// one directory per batch
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

func (l *LocalStorage) batchDir(batch string) (string, error) {
	if batch == "" || batch != filepath.Base(batch) || batch == "." || batch == ".." {
		return "", fmt.Errorf("invalid batch name %q", batch)
	}
	return filepath.Join(l.basePath, batch), nil
}

// Save writes a file to the batch directory
func (l *LocalStorage) Save(batch, filename string, data []byte) (string, error) {
	dir, err := l.batchDir(batch)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating batch directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return path, nil
}

// Delete removes the batch directory
func (l *LocalStorage) Delete(batch string) error {
	dir, err := l.batchDir(batch)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	return nil
}
