package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultMaxThumbnailBytes caps a thumbnail upload at 5MB.
const DefaultMaxThumbnailBytes = 5 * 1024 * 1024

var thumbnailTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ThumbnailUpload is an image file submitted by an admin.
type ThumbnailUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ThumbnailStore persists thumbnail images and hands back a reference path.
type ThumbnailStore interface {
	Save(ctx context.Context, upload ThumbnailUpload) (string, error)
	Remove(ctx context.Context, ref string) error
}

// LocalThumbnailStore writes thumbnails into a directory served under urlPrefix.
type LocalThumbnailStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

// NewLocalThumbnailStore creates the directory if needed.
func NewLocalThumbnailStore(dir, urlPrefix string, maxBytes int64) (*LocalThumbnailStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxThumbnailBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail dir: %w", err)
	}
	return &LocalThumbnailStore{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}, nil
}

// Save checks size, extension and sniffed content type, then writes the file
// under a generated name.
func (s *LocalThumbnailStore) Save(ctx context.Context, upload ThumbnailUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if upload.Size > s.maxBytes {
		return "", newValidationError("thumbnail", fmt.Sprintf("file exceeds the %dMB limit", s.maxBytes/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if _, ok := thumbnailTypes[ext]; !ok {
		return "", newValidationError("thumbnail", "only image files (jpeg, jpg, png, gif, webp) are allowed")
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read thumbnail: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", newValidationError("thumbnail", fmt.Sprintf("file exceeds the %dMB limit", s.maxBytes/(1024*1024)))
	}
	if len(data) == 0 {
		return "", newValidationError("thumbnail", "file is empty")
	}

	detected := mimetype.Detect(data)
	if !isAllowedImage(detected) {
		return "", newValidationError("thumbnail", fmt.Sprintf("content type %s is not an allowed image", detected.String()))
	}

	name := uuid.NewString() + ext
	if err := writeFileAtomic(filepath.Join(s.dir, name), data); err != nil {
		return "", fmt.Errorf("failed to store thumbnail: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Remove deletes a thumbnail previously returned by Save. Unknown references
// are ignored.
func (s *LocalThumbnailStore) Remove(_ context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.urlPrefix+"/") {
		return nil
	}
	name := path.Base(ref)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove thumbnail: %w", err)
	}
	return nil
}

func isAllowedImage(m *mimetype.MIME) bool {
	for _, allowed := range thumbnailTypes {
		if m.Is(allowed) {
			return true
		}
	}
	return false
}

func writeFileAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
