// Package storage saves uploaded product images.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"storefront/internal/apperror"

	"github.com/google/uuid"
)

// ImageStore persists an upload and returns an opaque reference to it.
type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
}

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// MaxImageSize bounds a single upload.
const MaxImageSize = 5 << 20

// LocalImageStore writes images below Root/products and returns "products/<uuid><ext>".
type LocalImageStore struct {
	Root string
}

func NewLocalImageStore(root string) *LocalImageStore {
	return &LocalImageStore{Root: root}
}

func (s *LocalImageStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExt[ext] {
		return "", apperror.InvalidArgument("unsupported image type %q", ext)
	}
	if file.Size > MaxImageSize {
		return "", apperror.InvalidArgument("image exceeds %d bytes", MaxImageSize)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.Root, "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path.Join("products", name), nil
}
