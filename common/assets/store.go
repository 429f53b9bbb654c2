// Package assets implements the per-user asset store: a directory tree of
// uploaded originals, thumbnails, and screenshots, plus a temp staging area
// for multipart uploads. Path derivation is pure and deterministic from
// (userID, kind, filename).
package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const tempDirName = "temp"

// Store manages files under a single uploads root
type Store struct {
	root string
}

// New creates a store rooted at the given directory, creating the root and
// temp staging directory if needed.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(abs, tempDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}

	return &Store{root: abs}, nil
}

// Root returns the absolute uploads root
func (s *Store) Root() string {
	return s.root
}

// UserImagesDir returns uploads/{userId}/images
func (s *Store) UserImagesDir(userID string) string {
	return filepath.Join(s.root, userID, "images")
}

// UserThumbnailsDir returns uploads/{userId}/thumbnails
func (s *Store) UserThumbnailsDir(userID string) string {
	return filepath.Join(s.root, userID, "thumbnails")
}

// UserScreenshotsDir returns uploads/{userId}/screenshots
func (s *Store) UserScreenshotsDir(userID string) string {
	return filepath.Join(s.root, userID, "screenshots")
}

// ImagePath returns the full path of an uploaded original
func (s *Store) ImagePath(userID, filename string) string {
	return filepath.Join(s.UserImagesDir(userID), filename)
}

// ThumbnailPath returns the full path of a thumbnail
func (s *Store) ThumbnailPath(userID, filename string) string {
	return filepath.Join(s.UserThumbnailsDir(userID), filename)
}

// ScreenshotPath returns the full path of a screenshot
func (s *Store) ScreenshotPath(userID, filename string) string {
	return filepath.Join(s.UserScreenshotsDir(userID), filename)
}

// TempDir returns the staging directory for uploads before relocation
func (s *Store) TempDir() string {
	return filepath.Join(s.root, tempDirName)
}

// Rel returns the path of a stored file relative to the uploads root.
// Payload records store relative paths so the root can move.
func (s *Store) Rel(fullPath string) (string, error) {
	rel, err := filepath.Rel(s.root, fullPath)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", fullPath, err)
	}
	return rel, nil
}

// Abs resolves a root-relative path back to a full path
func (s *Store) Abs(relPath string) string {
	return filepath.Join(s.root, relPath)
}

// EnsureUserDirs creates the per-user directory layout
func (s *Store) EnsureUserDirs(userID string) error {
	for _, dir := range []string{
		s.UserImagesDir(userID),
		s.UserThumbnailsDir(userID),
		s.UserScreenshotsDir(userID),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create user dir %s: %w", dir, err)
		}
	}
	return nil
}

// WriteFile writes data to path, creating parent directories as needed
func (s *Store) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a stored file
func (s *Store) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Promote moves a staged upload into its final location, creating parent
// directories as needed. Staging and final dirs share the uploads root, so
// this is a rename, not a copy.
func (s *Store) Promote(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("promote %s: %w", src, err)
	}
	return nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// StageUpload copies an incoming upload into the temp staging directory and
// returns the staged file path. The caller is responsible for removing it.
func (s *Store) StageUpload(src io.Reader, pattern string) (string, error) {
	if pattern == "" {
		pattern = "upload-*"
	}

	f, err := os.CreateTemp(s.TempDir(), pattern)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("stage upload: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close staging file: %w", err)
	}

	return f.Name(), nil
}
