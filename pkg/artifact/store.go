// Package artifact downloads report files and stores them on the local filesystem.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// LocalStore writes artifacts under a base directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed and checks it is writable.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(baseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &LocalStore{baseDir: baseDir}, nil
}

// BaseDir returns the storage root.
func (s *LocalStore) BaseDir() string { return s.baseDir }

// Put writes data to name under the base directory, replacing any existing file.
// The content is staged in a temp file and renamed into place.
func (s *LocalStore) Put(name string, data io.Reader) (domain.StoredArtifact, error) {
	if strings.TrimSpace(name) == "" {
		return domain.StoredArtifact{}, fmt.Errorf("file name is required")
	}

	cleanBaseDir := filepath.Clean(s.baseDir)
	fullPath := filepath.Clean(filepath.Join(s.baseDir, name))
	if !strings.HasPrefix(fullPath, cleanBaseDir+string(filepath.Separator)) {
		return domain.StoredArtifact{}, fmt.Errorf("path traversal detected")
	}

	tmp, err := os.CreateTemp(cleanBaseDir, ".partial-*")
	if err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	n, err := io.Copy(tmp, data)
	if err != nil {
		_ = tmp.Close()
		cleanup()
		return domain.StoredArtifact{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return domain.StoredArtifact{}, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return domain.StoredArtifact{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		cleanup()
		return domain.StoredArtifact{}, fmt.Errorf("move file into place: %w", err)
	}

	return domain.StoredArtifact{Path: fullPath, Bytes: n}, nil
}
