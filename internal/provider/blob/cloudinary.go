package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/news-aggregator-api/internal/config"
	"github.com/news-aggregator-api/internal/models"
	"github.com/rs/zerolog"
)

// CloudinaryStore keeps images in a Cloudinary folder
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
	log    zerolog.Logger
}

// NewCloudinaryStore creates a Cloudinary-backed store
func NewCloudinaryStore(cfg *config.BlobConfig, log zerolog.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &CloudinaryStore{
		cld:    cld,
		folder: cfg.CloudinaryFolder,
		log:    log.With().Str("provider", "cloudinary").Logger(),
	}, nil
}

// Put uploads the image and returns its secure URL
func (s *CloudinaryStore) Put(ctx context.Context, upload *models.Upload) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, upload.Reader, uploader.UploadParams{
		Folder: s.folder,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload failed: %s", result.Error.Message)
	}

	s.log.Debug().Str("public_id", result.PublicID).Msg("Image stored")
	return result.SecureURL, nil
}

// Delete destroys the asset behind url
func (s *CloudinaryStore) Delete(ctx context.Context, rawURL string) error {
	publicID, err := PublicIDFromURL(rawURL)
	if err != nil {
		return err
	}

	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy failed: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy failed: %s", result.Error.Message)
	}
	return nil
}

// PublicIDFromURL extracts the asset id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/news-articles/abc.jpg
func PublicIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrForeignURL
	}

	_, rest, found := strings.Cut(u.Path, "/upload/")
	if !found || rest == "" {
		return "", ErrForeignURL
	}

	segments := strings.Split(rest, "/")
	if len(segments) > 1 && isVersion(segments[0]) {
		segments = segments[1:]
	}

	id := strings.Join(segments, "/")
	if dot := strings.LastIndex(id, "."); dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	if id == "" {
		return "", ErrForeignURL
	}
	return id, nil
}

func isVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
