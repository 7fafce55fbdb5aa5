// Package storage abstracts the document blob store. The core only needs
// upload, presign and delete; an S3-compatible implementation can replace
// LocalStore without touching the handlers.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BlobStore is the contract the document handlers consume.
type BlobStore interface {
	// Upload stores the content and returns an opaque locator plus the
	// stored size in bytes.
	Upload(content io.Reader, filename string, projectID uint64, contentType string) (string, int64, error)
	// Presign returns a time-limited download URL for the locator, or ""
	// when the locator is unknown.
	Presign(locator string, ttl time.Duration) string
	// Delete removes the blob. Returns false when nothing was deleted.
	Delete(locator string) bool
}

// LocalStore keeps blobs on the local filesystem under a base directory,
// mirroring the projects/<id>/<random>.<ext> layout used in object storage.
// Presigned URLs are plain file paths; suitable for development and
// single-node deployments only.
type LocalStore struct {
	BaseDir string
	MaxSize int64
}

func NewLocalStore(baseDir string, maxSizeMB int) *LocalStore {
	return &LocalStore{BaseDir: baseDir, MaxSize: int64(maxSizeMB) * 1024 * 1024}
}

func (s *LocalStore) Upload(content io.Reader, filename string, projectID uint64, _ string) (string, int64, error) {
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = filename[i:]
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", 0, err
	}
	locator := filepath.Join("projects", fmt.Sprintf("%d", projectID), hex.EncodeToString(buf)+ext)

	full := filepath.Join(s.BaseDir, locator)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(content, s.MaxSize+1))
	if err != nil {
		_ = os.Remove(full)
		return "", 0, err
	}
	if n > s.MaxSize {
		_ = os.Remove(full)
		return "", 0, fmt.Errorf("file exceeds maximum size of %d bytes", s.MaxSize)
	}
	return locator, n, nil
}

func (s *LocalStore) Presign(locator string, _ time.Duration) string {
	full := filepath.Join(s.BaseDir, locator)
	if _, err := os.Stat(full); err != nil {
		return ""
	}
	return "file://" + full
}

func (s *LocalStore) Delete(locator string) bool {
	return os.Remove(filepath.Join(s.BaseDir, locator)) == nil
}
