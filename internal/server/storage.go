package server

import (
	"fmt"
	"os"
)

// Storage is the read-only view of the filesystem the responder needs.
type Storage interface {
	Exists(path string) bool
	IsDir(path string) bool
	IsRegular(path string) bool
	Size(path string) (int64, error)
	ReadAll(path string) ([]byte, error)
}

// OSStorage serves paths straight from the host filesystem. Symlinks are
// followed.
type OSStorage struct{}

func (OSStorage) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSStorage) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OSStorage) IsRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (OSStorage) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}

func (OSStorage) ReadAll(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
