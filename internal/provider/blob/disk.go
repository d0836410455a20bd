package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/news-aggregator-api/internal/models"
	"github.com/rs/zerolog"
)

// DiskStore keeps images in a local directory served under a public prefix
type DiskStore struct {
	dir     string
	baseURL string
	log     zerolog.Logger
}

// NewDiskStore creates the upload directory if needed
func NewDiskStore(dir, baseURL string, log zerolog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log.With().Str("provider", "disk").Logger(),
	}, nil
}

// Put writes the upload under a random name and returns its public URL
func (s *DiskStore) Put(ctx context.Context, upload *models.Upload) (string, error) {
	name := uuid.New().String() + extensionFor(upload)
	target := filepath.Join(s.dir, name)

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, upload.Reader); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	s.log.Debug().Str("file", name).Msg("Image stored")
	return s.baseURL + "/" + name, nil
}

// Delete removes a file previously returned by Put. Missing files are not an error.
func (s *DiskStore) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return ErrForeignURL
	}
	name := strings.TrimPrefix(url, s.baseURL+"/")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ErrForeignURL
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
