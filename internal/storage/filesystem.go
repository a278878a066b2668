package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotImage is returned when SaveImage is handed bytes that do not sniff as
// a supported image type.
var ErrNotImage = errors.New("storage: unsupported image type")

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// FileStore keeps generated post images on local disk. The API serves
// basePath under /static, so every key maps to baseURL + "/" + key.
type FileStore struct {
	basePath string
	baseURL  string
}

func NewFileStore(basePath, baseURL string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base path: %w", err)
	}
	return &FileStore{basePath: basePath, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}, nil
}

func (s *FileStore) BasePath() string {
	return s.basePath
}

// Write stores data under key and returns the cleaned key. The file appears
// atomically so the static handler never serves a partial image.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.basePath, filepath.FromSlash(key))
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("storage: chmod %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("storage: publish %s: %w", key, err)
	}
	return key, nil
}

func (s *FileStore) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// SaveImage writes an image under prefix and returns its public URL. When
// mimeType is missing or generic the bytes are sniffed instead.
func (s *FileStore) SaveImage(ctx context.Context, prefix string, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("storage: empty image")
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "image/jpg" {
		mimeType = "image/jpeg"
	}
	ext, ok := imageExtensions[mimeType]
	if !ok {
		sniffed, _, _ := strings.Cut(http.DetectContentType(data), ";")
		if ext, ok = imageExtensions[sniffed]; !ok {
			return "", fmt.Errorf("%w: %q", ErrNotImage, sniffed)
		}
	}
	key, err := s.Write(ctx, path.Join(prefix, uuid.NewString()+ext), data)
	if err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

// sanitizeKey normalizes separators and refuses keys that escape the root.
func sanitizeKey(key string) (string, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || strings.HasPrefix(key, "../") || strings.Contains(key, "/../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
