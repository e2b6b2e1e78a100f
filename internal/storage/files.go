// Package storage lays out uploaded and derived activity files under one upload root.
// Paths handed to callers outside the package are relative to that root.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces an uploaded name to a flat, portable file name.
// It returns "" when nothing usable remains.
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// Ext returns the lower-case extension of name without the dot
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ContentHash returns the hex SHA-256 digest of data
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Storage manages files below the upload root
type Storage struct {
	root string
}

// New creates a storage rooted at dir
func New(dir string) *Storage {
	return &Storage{root: dir}
}

// Abs resolves a path relative to the upload root
func (s *Storage) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// TempDir creates a fresh per-request working directory. The caller removes it.
func (s *Storage) TempDir() (string, error) {
	dir := filepath.Join(s.root, "tmp", uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	return dir, nil
}

// SaveUpload writes r to dir/name and returns the absolute path
func (s *Storage) SaveUpload(dir, name string, r io.Reader) (string, error) {
	dst := filepath.Join(dir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload file: %w", err)
	}
	return dst, nil
}

// ActivityPath returns a new relative path for an activity artifact:
// activities/{user}/{start}_{sport}_{random}.{ext}
func (s *Storage) ActivityPath(userID, sportID int64, start time.Time, ext string) string {
	name := fmt.Sprintf("%s_%d_%s.%s",
		start.UTC().Format("20060102_150405"), sportID, strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	return filepath.ToSlash(filepath.Join("activities", fmt.Sprint(userID), name))
}

// Relocate moves an absolute source file to a relative destination
func (s *Storage) Relocate(src, rel string) error {
	dst := s.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create activity dir: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file into storage: %w", err)
	}
	return nil
}

// Write stores data at a relative destination
func (s *Storage) Write(rel string, data []byte) error {
	dst := s.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create activity dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Remove deletes relative paths, ignoring empty and missing ones
func (s *Storage) Remove(rels ...string) error {
	var first error
	for _, rel := range rels {
		if rel == "" {
			continue
		}
		if err := os.Remove(s.Abs(rel)); err != nil && !os.IsNotExist(err) && first == nil {
			first = err
		}
	}
	return first
}
