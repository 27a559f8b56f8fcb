package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/vbonduro/aushadhi/internal/imagestore"
)

const defaultExt = ".jpg"

// Store writes images as flat files under basePath.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), extFor(mimeType))
	filePath, err := s.safeJoin(key)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return key, nil
}

// Get opens the image and reports its content type as detected from the
// stored bytes.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, "", err
	}

	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%s: %w", key, imagestore.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to detect image type: %w", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%s: %w", key, imagestore.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, mtype.String(), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", key, imagestore.ErrNotFound)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// safeJoin resolves key relative to basePath and rejects directory traversal.
func (s *Store) safeJoin(key string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, key))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}

func extFor(mimeType string) string {
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return defaultExt
}
