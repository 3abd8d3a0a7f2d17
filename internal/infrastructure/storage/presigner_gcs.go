package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/aryan0dhankhar/wardenlink/pkg/config"
)

var _ Presigner = (*GCSPresigner)(nil)

// GCSPresigner signs PUT URLs for Google Cloud Storage.
type GCSPresigner struct {
	client *gcs.Client
	bucket string
}

// NewGCSPresigner authenticates with a service account key file.
func NewGCSPresigner(ctx context.Context, cfg config.StorageConfig) (*GCSPresigner, error) {
	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("GCS bucket is required")
	}
	if cfg.GCSCredentialsFile == "" {
		return nil, fmt.Errorf("GCS credentials file is required")
	}

	client, err := gcs.NewClient(ctx, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.GCSCredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSPresigner{client: client, bucket: cfg.GCSBucket}, nil
}

func (p *GCSPresigner) PresignPut(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	u, err := p.client.Bucket(p.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:      http.MethodPut,
		Expires:     time.Now().Add(expiry),
		ContentType: contentType,
		Scheme:      gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign GCS PUT for %q: %w", key, err)
	}
	return u, nil
}

func (p *GCSPresigner) PublicURL(key string) string {
	return joinURL("https://storage.googleapis.com/"+p.bucket, key)
}

func (p *GCSPresigner) Bucket() string { return p.bucket }

// Close releases the underlying client.
func (p *GCSPresigner) Close() error { return p.client.Close() }
