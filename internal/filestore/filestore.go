// Package filestore keeps uploaded documents on local disk, one file per
// content fingerprint.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned by Save when the file for a fingerprint is already
// on disk. The existing path is still returned.
var ErrExists = errors.New("file already exists")

type Store struct {
	dir string
	ext string
}

// New creates dir if needed. Files are named <fingerprint><ext>.
func New(dir, ext string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, ext: ext}, nil
}

func (s *Store) Path(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+s.ext)
}

// Save writes data once. A second Save for the same fingerprint leaves the
// first file untouched and returns ErrExists.
func (s *Store) Save(fingerprint string, data []byte) (string, error) {
	if fingerprint == "" || filepath.Base(fingerprint) != fingerprint {
		return "", fmt.Errorf("invalid fingerprint %q", fingerprint)
	}
	path := s.Path(fingerprint)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return path, ErrExists
		}
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
