package media

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds MinIO connection settings.
type MinioConfig struct {
	Endpoint        string // e.g. "minio:9000"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string // defaults to us-east-1
	Bucket          string
	PublicURL       string // prefix objects are reachable under
}

// MinioStore keeps uploads in a single MinIO bucket.
type MinioStore struct {
	mc        *minio.Client
	bucket    string
	region    string
	publicURL string

	mu    sync.Mutex
	ready bool
}

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &MinioStore{mc: mc, bucket: cfg.Bucket, region: region, publicURL: publicURL}, nil
}

// ensureBucket creates the bucket if needed. Only a successful check is
// remembered; a failed one is retried by the next upload.
func (s *MinioStore) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.ready = true
	return nil
}

func (s *MinioStore) Store(ctx context.Context, r io.Reader, size int64, mimeType, originalName string) (Ref, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return Ref{}, fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	key := ObjectName(originalName)
	_, err := s.mc.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return Ref{}, fmt.Errorf("put %s: %w", key, err)
	}
	return refFor(s.publicURL, key, mimeType), nil
}

func (s *MinioStore) List(ctx context.Context) ([]Object, error) {
	var out []Object
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, Object{
			Key:          obj.Key,
			URL:          joinURL(s.publicURL, obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
