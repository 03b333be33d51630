package bootstrap

import (
	"context"
	"fmt"

	"github.com/designstudio/portfolio-backend/config"
	"github.com/designstudio/portfolio-backend/internal/media"
)

// MediaBackend is a media store that can also be swept.
type MediaBackend interface {
	media.Store
	media.Inventory
}

// OpenMediaStore builds the configured media backend.
func OpenMediaStore(ctx context.Context, cfg *config.MediaConfig) (MediaBackend, error) {
	var (
		store MediaBackend
		err   error
	)
	switch cfg.Backend {
	case "local":
		var s *media.LocalStore
		s, err = media.NewLocalStore(cfg.Dir, cfg.BaseURL)
		store = s
	case "minio":
		var s *media.MinioStore
		s, err = media.NewMinioStore(media.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKey,
			SecretAccessKey: cfg.MinioSecretKey,
			UseSSL:          cfg.MinioUseSSL,
			Bucket:          cfg.Bucket,
			PublicURL:       cfg.PublicURL,
		})
		store = s
	case "s3":
		var s *media.S3Store
		s, err = media.NewS3Store(ctx, media.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			PublicURL: cfg.PublicURL,
		})
		store = s
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s media store: %w", cfg.Backend, err)
	}
	return store, nil
}
