package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore writes images to a local uploads directory served statically
// by the HTTP layer.
type DiskStore struct {
	dir      string
	basePath string
}

// NewDiskStore creates the uploads directory if needed. basePath is the
// URL path prefix the files are served under, e.g. "/api/uploads".
func NewDiskStore(dir, basePath string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStore{dir: dir, basePath: strings.TrimRight(basePath, "/")}, nil
}

func (s *DiskStore) Save(_ context.Context, filename, _ string, r io.Reader, _ int64) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return s.basePath + "/" + name, nil
}
