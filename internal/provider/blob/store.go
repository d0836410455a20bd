// Package blob stores uploaded article images.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/models"
	"github.com/rs/zerolog"
)

// ErrForeignURL is returned by Delete for a URL the store did not issue
var ErrForeignURL = errors.New("url does not belong to this store")

// Store persists image uploads and releases them by URL
type Store interface {
	Put(ctx context.Context, upload *models.Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

// New builds the store selected by cfg.Provider
func New(cfg *config.BlobConfig, log zerolog.Logger) (Store, error) {
	switch cfg.Provider {
	case "disk", "":
		return NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL, log)
	case "cloudinary":
		return NewCloudinaryStore(cfg, log)
	default:
		return nil, fmt.Errorf("unknown blob provider %q", cfg.Provider)
	}
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// extensionFor picks a file extension from the content type, then the filename
func extensionFor(upload *models.Upload) string {
	if ext, ok := extensions[strings.ToLower(upload.ContentType)]; ok {
		return ext
	}
	if ext := path.Ext(upload.Filename); ext != "" {
		return strings.ToLower(ext)
	}
	return ".bin"
}
